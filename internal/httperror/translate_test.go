package httperror

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateNetworkFault(t *testing.T) {
	msg := Translate(Failure{Status: 0})
	assert.Equal(t, "No se pudo conectar con el servidor.", msg)
}

func TestTranslatePrecedence(t *testing.T) {
	tests := []struct {
		name string
		f    Failure
		want string
	}{
		{
			name: "structured message field wins over status switch",
			f:    Failure{Status: 500, Body: []byte(`{"message":"ID duplicado"}`)},
			want: "ID duplicado",
		},
		{
			name: "empty message field falls through",
			f:    Failure{Status: 500, Body: []byte(`{"message":""}`)},
			want: "Error interno del servidor. Intente más tarde.",
		},
		{
			name: "string body returned verbatim",
			f:    Failure{Status: 400, Body: []byte(`"algo salió mal"`)},
			want: "algo salió mal",
		},
		{
			name: "400 with no body",
			f:    Failure{Status: 400},
			want: "La solicitud es inválida. Verifique los datos enviados.",
		},
		{
			name: "404 with no body",
			f:    Failure{Status: 404},
			want: "El recurso solicitado no fue encontrado.",
		},
		{
			name: "500 with no body",
			f:    Failure{Status: 500},
			want: "Error interno del servidor. Intente más tarde.",
		},
		{
			name: "unrecognized html body falls to status switch",
			f:    Failure{Status: 404, Body: []byte("<html>not found</html>")},
			want: "El recurso solicitado no fue encontrado.",
		},
		{
			name: "network fault ignores any body",
			f:    Failure{Status: 0, Body: []byte(`{"message":"ignorado"}`)},
			want: "No se pudo conectar con el servidor.",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Translate(tc.f))
		})
	}
}

func TestTranslateDefaultStatus(t *testing.T) {
	msg := Translate(Failure{Status: 403, StatusText: "Forbidden"})
	assert.Contains(t, msg, "Código de error: 403")
	assert.Contains(t, msg, "Mensaje: Forbidden")
}

func TestFailureErr(t *testing.T) {
	err := Failure{Status: 404}.Err()
	require.Error(t, err)
	assert.Equal(t, "El recurso solicitado no fue encontrado.", err.Error())

	var te *TranslatedError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 404, te.Status)
}
