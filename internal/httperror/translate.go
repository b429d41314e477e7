// Package httperror turns transport failures into the single
// user-facing message the console is allowed to show. The wording is
// contract: every string here is displayed verbatim.
package httperror

import (
	"encoding/json"
	"fmt"

	F "github.com/IBM/fp-go/v2/function"
	"github.com/IBM/fp-go/v2/option"
)

const (
	// MsgNoConnection is shown when the request never reached a server.
	MsgNoConnection = "No se pudo conectar con el servidor."
	MsgBadRequest   = "La solicitud es inválida. Verifique los datos enviados."
	MsgNotFound     = "El recurso solicitado no fue encontrado."
	MsgServerError  = "Error interno del servidor. Intente más tarde."
)

// Failure describes one failed exchange with the backend. Status 0
// means a network-level fault: the request never reached a server.
type Failure struct {
	Status     int
	StatusText string
	Body       []byte
}

// TranslatedError carries the already-translated message through the
// error return path. Error() is exactly the string to display.
type TranslatedError struct {
	Status  int
	Message string
}

func (e *TranslatedError) Error() string { return e.Message }

// Err packages f as an error whose message is Translate(f).
func (f Failure) Err() error {
	return &TranslatedError{Status: f.Status, Message: Translate(f)}
}

// Translate maps a failure to one message. Precedence, first match
// wins: network fault, structured body with a non-empty "message"
// field, body that is itself a JSON string, then the status switch.
func Translate(f Failure) string {
	if f.Status == 0 {
		return MsgNoConnection
	}
	return F.Pipe2(
		structuredMessage(f.Body),
		option.Alt(func() option.Option[string] { return stringBody(f.Body) }),
		option.GetOrElse(func() string { return statusMessage(f) }),
	)
}

func structuredMessage(body []byte) option.Option[string] {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return option.None[string]()
	}
	if msg, ok := payload["message"].(string); ok && msg != "" {
		return option.Some(msg)
	}
	return option.None[string]()
}

func stringBody(body []byte) option.Option[string] {
	var s string
	if err := json.Unmarshal(body, &s); err != nil {
		return option.None[string]()
	}
	return option.Some(s)
}

func statusMessage(f Failure) string {
	switch f.Status {
	case 400:
		return MsgBadRequest
	case 404:
		return MsgNotFound
	case 500:
		return MsgServerError
	default:
		return fmt.Sprintf("Código de error: %d\nMensaje: %s", f.Status, f.StatusText)
	}
}
