// Package layout places document lines on fixed-size pages. It draws
// nothing; the records it produces are painted by a canvas.
package layout

import "github.com/r3d91ll/quire/pkg/paper"

// Align is the anchor side of a line.
type Align int

const (
	AlignLeft Align = iota
	AlignRight
)

func (a Align) String() string {
	if a == AlignRight {
		return "right"
	}
	return "left"
}

// Profile is the font and anchor used for one text direction.
type Profile struct {
	Font  string
	Size  float64
	X     float64
	Align Align
}

// Standard profiles.
var (
	LeftToRight = Profile{Font: "Helvetica", Size: 12, X: 50, Align: AlignLeft}
	RightToLeft = Profile{Font: "UrduFont", Size: 14, X: 550, Align: AlignRight}
)

// Geometry is the page box and the vertical cursor rules, in points.
type Geometry struct {
	Width      float64
	Height     float64
	Top        float64
	Bottom     float64
	LineHeight float64
}

// Letter is 8.5x11in with the cursor running from 750 down to 50.
var Letter = Geometry{Width: 612, Height: 792, Top: 750, Bottom: 50, LineHeight: 25}

// LinesPerPage is how many lines fit before a break is forced.
func (g Geometry) LinesPerPage() int {
	if g.LineHeight <= 0 {
		return 0
	}
	return int((g.Top-g.Bottom)/g.LineHeight) + 1
}

// Line is one drawn line record.
type Line struct {
	Content string
	X       float64
	Y       float64
	Align   Align
}

// Page is an ordered set of lines drawn with one profile.
type Page struct {
	Number  int
	Profile Profile
	Lines   []Line
}

// Paginator lays out lines for a direction.
type Paginator struct {
	geom     Geometry
	profiles map[paper.Direction]Profile
}

// Option configures a Paginator.
type Option func(*Paginator)

// WithGeometry replaces the Letter geometry.
func WithGeometry(g Geometry) Option {
	return func(p *Paginator) { p.geom = g }
}

// WithProfile replaces the profile for dir.
func WithProfile(dir paper.Direction, prof Profile) Option {
	return func(p *Paginator) { p.profiles[dir] = prof }
}

// New returns a paginator with Letter geometry and the standard profiles.
func New(opts ...Option) *Paginator {
	p := &Paginator{
		geom: Letter,
		profiles: map[paper.Direction]Profile{
			paper.LeftToRight: LeftToRight,
			paper.RightToLeft: RightToLeft,
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Geometry returns the page geometry.
func (p *Paginator) Geometry() Geometry {
	return p.geom
}

// Profile returns the profile used for dir.
func (p *Paginator) Profile(dir paper.Direction) Profile {
	return p.profiles[dir]
}

// Profiles returns every configured profile.
func (p *Paginator) Profiles() []Profile {
	return []Profile{p.profiles[paper.LeftToRight], p.profiles[paper.RightToLeft]}
}

// Paginate places lines top to bottom. A page is opened only when a
// line needs it, so there is always at least one page and never an
// empty trailing one.
func (p *Paginator) Paginate(lines []string, dir paper.Direction) []Page {
	prof := p.profiles[dir]
	pages := []Page{{Number: 1, Profile: prof}}
	y := p.geom.Top

	for _, content := range lines {
		if y < p.geom.Bottom {
			pages = append(pages, Page{Number: len(pages) + 1, Profile: prof})
			y = p.geom.Top
		}
		cur := &pages[len(pages)-1]
		cur.Lines = append(cur.Lines, Line{Content: content, X: prof.X, Y: y, Align: prof.Align})
		y -= p.geom.LineHeight
	}
	return pages
}
