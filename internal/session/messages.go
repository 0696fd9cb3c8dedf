package session

import "fmt"

// Status lines shown to users.
const (
	MsgLoadingIndex       = "Cargando indice..."
	MsgIndexReady         = "Indice listo."
	MsgIndexFailed        = "No se pudo cargar el indice."
	MsgOfflineUnsupported = "Este sistema no soporta cache offline."
	MsgSaving             = "Descargando audio para offline..."
	MsgSaved              = "Audio guardado para offline."
	MsgSaveFailed         = "No se pudo guardar el audio offline."
	MsgRemoved            = "Audio eliminado del modo offline."
	MsgRemoveFailed       = "No se pudo borrar el audio offline."
	MsgBusy               = "Operacion offline en curso."
	MsgNoAudio            = "Este episodio no tiene audio."
	MsgCleared            = "Descargas offline eliminadas."
	MsgClearFailed        = "No se pudieron limpiar las descargas."
	MsgStorageFailed      = "No se pudo escribir en el disco."
	MsgLoadingTranscript  = "Cargando transcripciones..."
	MsgTranscriptsReady   = "Transcripciones listas."
	MsgNoTranscripts      = "Transcripciones no disponibles."
	MsgOffline            = "Sin conexion. Modo offline activo."
	MsgOnline             = "Conexion restablecida."
)

// ResultsLabel renders the result count line.
func ResultsLabel(n int) string {
	return fmt.Sprintf("%d resultados", n)
}

// OfflineLabel renders the offline summary line.
func OfflineLabel(n int) string {
	return fmt.Sprintf("%d descargados", n)
}

// ResumeLabel renders the resume offer for a saved position.
func ResumeLabel(pos string) string {
	return "Continuar desde " + pos
}
