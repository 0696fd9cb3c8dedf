package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the application
type KeyMap struct {
	// Navigation
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding
	LoadMore key.Binding

	// Filters
	Search      key.Binding
	Year        key.Binding
	Month       key.Binding
	OfflineOnly key.Binding
	Transcripts key.Binding
	Reset       key.Binding

	// Actions
	Quit         key.Binding
	Help         key.Binding
	Escape       key.Binding
	Play         key.Binding
	Offline      key.Binding
	ClearOffline key.Binding

	// Playback
	Toggle      key.Binding
	Back        key.Binding
	Forward     key.Binding
	PrevSegment key.Binding
	NextSegment key.Binding
	Stop        key.Binding
	Finish      key.Binding

	// Confirmations
	Confirm key.Binding
	Deny    key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		// Navigation
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "subir"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "bajar"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("PgUp", "pagina arriba"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("PgDn", "pagina abajo"),
		),
		Home: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "inicio"),
		),
		End: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "final"),
		),
		LoadMore: key.NewBinding(
			key.WithKeys("+"),
			key.WithHelp("+", "cargar mas"),
		),

		// Filters
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "buscar"),
		),
		Year: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "año"),
		),
		Month: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mes"),
		),
		OfflineOnly: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "solo offline"),
		),
		Transcripts: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "buscar en transcripciones"),
		),
		Reset: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "limpiar filtros"),
		),

		// Actions
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "salir"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "ayuda"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancelar"),
		),
		Play: key.NewBinding(
			key.WithKeys("enter", "p"),
			key.WithHelp("enter", "reproducir"),
		),
		Offline: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "guardar/quitar offline"),
		),
		ClearOffline: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "borrar descargas"),
		),

		// Playback
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "pausa"),
		),
		Back: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "-10s"),
		),
		Forward: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "+10s"),
		),
		PrevSegment: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "linea anterior"),
		),
		NextSegment: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "linea siguiente"),
		),
		Stop: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "detener"),
		),
		Finish: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "marcar terminado"),
		),

		// Confirmations
		Confirm: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "confirmar"),
		),
		Deny: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n/esc", "cancelar"),
		),
	}
}

// Keys is the global key bindings instance
var Keys = DefaultKeyMap()
