package cli

import (
	"bytes"
	"encoding/json"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"itemweaver/internal/action"
	"itemweaver/internal/config"
	"itemweaver/internal/core"
)

// document is the serialized form of a result. Only the outputs the action
// produces are present.
type document struct {
	Action           string       `json:"action" yaml:"action"`
	Items            *[]core.Item `json:"items,omitempty" yaml:"items,omitempty"`
	Count            *int         `json:"count,omitempty" yaml:"count,omitempty"`
	OutString        *string      `json:"outString,omitempty" yaml:"outString,omitempty"`
	CurrentDirectory *string      `json:"currentDirectory,omitempty" yaml:"currentDirectory,omitempty"`
}

func newDocument(res *action.Result) document {
	doc := document{Action: string(res.Kind)}
	if res.Has(action.OutputItems) {
		items := res.Items.Items()
		if items == nil {
			items = []core.Item{}
		}
		doc.Items = &items
	}
	if res.Has(action.OutputCount) {
		n := res.Count
		doc.Count = &n
	}
	if res.Has(action.OutputString) {
		s := res.OutString
		doc.OutString = &s
	}
	if res.Has(action.OutputDirectory) {
		d := res.CurrentDirectory
		doc.CurrentDirectory = &d
	}
	return doc
}

// templateData is what text templates see.
type templateData struct {
	Action           string
	Items            []core.Item
	Count            int
	HasCount         bool
	OutString        string
	CurrentDirectory string
}

// Printer renders a result.
type Printer interface {
	Print(res *action.Result) ([]byte, error)
}

// PrinterFunc adapts a function to Printer.
type PrinterFunc func(res *action.Result) ([]byte, error)

func (p PrinterFunc) Print(res *action.Result) ([]byte, error) {
	return p(res)
}

// NewPrinter returns the printer for format. text templates have the sprig
// function set plus escape and unescape.
func NewPrinter(format, text string) (Printer, error) {
	switch format {
	case config.FormatJSON:
		return PrinterFunc(printJSON), nil
	case config.FormatYAML:
		return PrinterFunc(printYAML), nil
	case config.FormatText:
		return newTemplatePrinter(text)
	default:
		return nil, errors.Errorf("unknown output format %q", format)
	}
}

func printJSON(res *action.Result) ([]byte, error) {
	b, err := json.MarshalIndent(newDocument(res), "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encode json")
	}
	return append(b, '\n'), nil
}

func printYAML(res *action.Result) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(newDocument(res)); err != nil {
		return nil, errors.Wrap(err, "encode yaml")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, "encode yaml")
	}
	return buf.Bytes(), nil
}

type templatePrinter struct {
	tmpl *template.Template
}

func newTemplatePrinter(text string) (Printer, error) {
	if text == "" {
		text = config.DefaultTemplate
	}
	funcs := sprig.TxtFuncMap()
	funcs["escape"] = func(s string) string {
		out, err := core.Escape(s)
		if err != nil {
			return ""
		}
		return out
	}
	funcs["unescape"] = core.Unescape
	funcs["fileName"] = core.FileName

	t, err := template.New("main").Funcs(funcs).Parse(text)
	if err != nil {
		return nil, errors.Wrap(err, "parse template")
	}
	return templatePrinter{tmpl: t}, nil
}

func (p templatePrinter) Print(res *action.Result) ([]byte, error) {
	data := templateData{
		Action:           string(res.Kind),
		Items:            res.Items.Items(),
		Count:            res.Count,
		HasCount:         res.Has(action.OutputCount),
		OutString:        res.OutString,
		CurrentDirectory: res.CurrentDirectory,
	}
	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, data); err != nil {
		return nil, errors.Wrap(err, "execute template")
	}
	return buf.Bytes(), nil
}
