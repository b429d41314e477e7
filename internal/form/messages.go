package form

import "fmt"

// User-visible strings. Displayed verbatim; do not reword.
const (
	MsgFieldRequired = "Este campo es requerido"
	MsgDateInPast    = "La fecha debe ser igual o mayor a la fecha actual"
	MsgIDExists      = "Este ID ya existe"
	MsgFieldInvalid  = "Campo inválido"
	MsgCreated       = "Producto creado exitosamente"
	MsgUpdated       = "Producto actualizado exitosamente"
	MsgLoadFailed    = "Error al cargar datos del producto"
)

func msgMinLength(n int) string {
	return fmt.Sprintf("Mínimo %d caracteres", n)
}

func msgMaxLength(n int) string {
	return fmt.Sprintf("Máximo %d caracteres", n)
}
