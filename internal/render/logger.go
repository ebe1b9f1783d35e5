package render

import "github.com/rs/zerolog"

var renderLogger zerolog.Logger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	renderLogger = l.With().Str("component", "render").Logger()
}
