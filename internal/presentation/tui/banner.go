package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{"        _            _           _ _     _", "#818cf8"},
	{"  _ __ (_)_ __   ___| |__  _   _(_) | __| | ___ _ __", "#a78bfa"},
	{" | '_ \\| | '_ \\ / _ \\ '_ \\| | | | | |/ _` |/ _ \\ '__|", "#c084fc"},
	{" | |_) | | |_) |  __/ |_) | |_| | | | (_| |  __/ |", "#e879f9"},
	{" | .__/|_| .__/ \\___|_.__/ \\__,_|_|_|\\__,_|\\___|_|", "#f472b6"},
	{" |_|     |_|", "#fb7185"},
}

// PrintBanner writes the pipebuilder banner to w, coloured when the terminal supports it.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
