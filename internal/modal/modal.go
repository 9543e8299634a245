// Package modal implements the URL submission dialog: a two-state machine
// (hidden, visible) around a small form with url and name fields.
package modal

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-playground/validator/v10"
)

var ErrInvalid = errors.New("invalid submission")

// ErrHidden is returned by Submit when the dialog is not open.
var ErrHidden = errors.New("dialog is not open")

type Visibility int

const (
	Hidden Visibility = iota
	Visible
)

// Target is what a click landed on.
type Target int

const (
	Backdrop Target = iota
	Content
)

type Submission struct {
	URL  string `validate:"required,url,source_url"`
	Name string `validate:"max=200"`
}

const (
	fieldURL = iota
	fieldName
	fieldCount
)

type Coordinator struct {
	visibility Visibility
	fields     [fieldCount]textinput.Model
	focus      int
	err        error
}

func New() *Coordinator {
	urlInput := textinput.New()
	urlInput.Prompt = "URL  ❯ "
	urlInput.Placeholder = "https://example.com/page"
	urlInput.CharLimit = 2048

	nameInput := textinput.New()
	nameInput.Prompt = "Name ❯ "
	nameInput.Placeholder = "optional source name"
	nameInput.CharLimit = 200

	return &Coordinator{
		visibility: Hidden,
		fields:     [fieldCount]textinput.Model{urlInput, nameInput},
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("source_url", func(fl validator.FieldLevel) bool {
		parsed, err := url.Parse(fl.Field().String())
		if err != nil {
			return false
		}
		switch strings.ToLower(parsed.Scheme) {
		case "http", "https":
			return parsed.Host != ""
		case "file":
			return true
		default:
			return false
		}
	})
	return v
}

// Validate trims a submission and checks it. Errors wrap ErrInvalid.
func Validate(sub Submission) (Submission, error) {
	sub = Submission{URL: strings.TrimSpace(sub.URL), Name: strings.TrimSpace(sub.Name)}
	if err := validate.Struct(sub); err != nil {
		return Submission{}, fmt.Errorf("%w: %s", ErrInvalid, describe(err))
	}
	return sub, nil
}

func (c *Coordinator) Visibility() Visibility { return c.visibility }

func (c *Coordinator) Visible() bool { return c.visibility == Visible }

// Err is the validation error of the last rejected submit, if any.
func (c *Coordinator) Err() error { return c.err }

func (c *Coordinator) Values() (string, string) {
	return c.fields[fieldURL].Value(), c.fields[fieldName].Value()
}

// SetValues fills the form, for callers that already know the fields.
func (c *Coordinator) SetValues(rawURL, name string) {
	c.fields[fieldURL].SetValue(rawURL)
	c.fields[fieldName].SetValue(name)
}

func (c *Coordinator) Open() tea.Cmd {
	c.visibility = Visible
	c.err = nil
	return c.setFocus(fieldURL)
}

// Close hides the dialog and resets the form.
func (c *Coordinator) Close() {
	c.visibility = Hidden
	c.err = nil
	for i := range c.fields {
		c.fields[i].Reset()
		c.fields[i].Blur()
	}
	c.focus = fieldURL
}

// Click closes the dialog when the click landed on the backdrop. It reports
// whether the dialog was closed.
func (c *Coordinator) Click(target Target) bool {
	if c.visibility != Visible || target != Backdrop {
		return false
	}
	c.Close()
	return true
}

// Submit validates the form. A valid submission hides and resets the dialog
// before it is returned, so the caller dispatches with the dialog already
// gone. An invalid one keeps the dialog open with the error recorded.
func (c *Coordinator) Submit() (Submission, error) {
	if c.visibility != Visible {
		return Submission{}, ErrHidden
	}
	rawURL, name := c.Values()
	sub, err := Validate(Submission{URL: rawURL, Name: name})
	if err != nil {
		c.err = err
		return Submission{}, err
	}
	c.Close()
	return sub, nil
}

// Update routes key input to the focused field. tab and shift+tab (or
// up/down) move between fields.
func (c *Coordinator) Update(msg tea.Msg) tea.Cmd {
	if c.visibility != Visible {
		return nil
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down":
			return c.setFocus((c.focus + 1) % fieldCount)
		case "shift+tab", "up":
			return c.setFocus((c.focus + fieldCount - 1) % fieldCount)
		}
	}
	var cmd tea.Cmd
	c.fields[c.focus], cmd = c.fields[c.focus].Update(msg)
	return cmd
}

func (c *Coordinator) SetWidth(width int) {
	for i := range c.fields {
		c.fields[i].Width = width
	}
}

// View renders the two fields and the last validation error.
func (c *Coordinator) View() string {
	lines := []string{
		c.fields[fieldURL].View(),
		c.fields[fieldName].View(),
	}
	if c.err != nil {
		lines = append(lines, "", c.err.Error())
	}
	return strings.Join(lines, "\n")
}

func (c *Coordinator) setFocus(index int) tea.Cmd {
	c.focus = index
	var cmd tea.Cmd
	for i := range c.fields {
		if i == index {
			cmd = c.fields[i].Focus()
			continue
		}
		c.fields[i].Blur()
	}
	return cmd
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Field() {
	case "URL":
		if fe.Tag() == "required" {
			return "url is required"
		}
		return "url must be an absolute http, https or file address"
	case "Name":
		return "name is too long"
	default:
		return fe.Error()
	}
}

// Rect is the on-screen area of the dialog content.
type Rect struct {
	X, Y, Width, Height int
}

// HitTest maps a click position to the dialog content or the backdrop around
// it.
func HitTest(x, y int, content Rect) Target {
	if x >= content.X && x < content.X+content.Width && y >= content.Y && y < content.Y+content.Height {
		return Content
	}
	return Backdrop
}
