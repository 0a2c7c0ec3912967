package render

import (
	"sync"

	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
)

const goTypeface font.Typeface = "Go"

var (
	fontOnce sync.Once
	haveGo   bool
)

// useGoFont registers Go Regular with the plot font cache once. If the font
// cannot be parsed the plot keeps its built-in Liberation faces.
func useGoFont() {
	fontOnce.Do(func() {
		ttf, err := opentype.Parse(goregular.TTF)
		if err != nil {
			return
		}
		font.DefaultCache.Add(font.Collection{{Font: font.Font{Typeface: goTypeface}, Face: ttf}})
		haveGo = true
	})
}

func setFont(p *plot.Plot) {
	if !haveGo {
		return
	}
	for _, f := range []*font.Font{
		&p.Title.TextStyle.Font,
		&p.X.Label.TextStyle.Font,
		&p.Y.Label.TextStyle.Font,
		&p.X.Tick.Label.Font,
		&p.Y.Tick.Label.Font,
	} {
		*f = font.Font{Typeface: goTypeface, Size: f.Size}
	}
}
