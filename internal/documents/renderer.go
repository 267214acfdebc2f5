package documents

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	kindQuote = "quote"
	kindOrder = "order"
)

// Options brand the rendered documents and pick the money format.
type Options struct {
	CompanyName  string
	ContactEmail string
	Currency     string
	Locale       string
}

// Email is a rendered message ready to hand to a mail provider.
type Email struct {
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

type documentLine struct {
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
	Manual      bool
}

type document struct {
	Lang       string
	Subject    string
	Company    string
	Contact    string
	Recipient  string
	Number     string
	Status     string
	Currency   string
	Notes      string
	ValidUntil *time.Time
	TaxRate    decimal.Decimal
	Subtotal   decimal.Decimal
	Tax        decimal.Decimal
	Total      decimal.Decimal
	Lines      []documentLine
}

// Renderer turns quote and order snapshots into HTML emails.
type Renderer struct {
	opts      Options
	tag       language.Tag
	fallback  currency.Unit
	templates map[string]*template.Template
}

func NewRenderer(opts Options) (*Renderer, error) {
	opts.CompanyName = strings.TrimSpace(opts.CompanyName)
	if opts.CompanyName == "" {
		return nil, fmt.Errorf("company name required")
	}
	tag, err := language.Parse(strings.TrimSpace(opts.Locale))
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", opts.Locale, err)
	}
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(opts.Currency)))
	if err != nil {
		return nil, fmt.Errorf("parse currency %q: %w", opts.Currency, err)
	}

	r := &Renderer{
		opts:      opts,
		tag:       tag,
		fallback:  unit,
		templates: make(map[string]*template.Template, 2),
	}
	for _, kind := range []string{kindQuote, kindOrder} {
		tpl, err := template.New(kind).
			Funcs(r.funcs(unit)).
			ParseFS(templateFS, "templates/layout.html", "templates/"+kind+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", kind, err)
		}
		r.templates[kind] = tpl
	}
	return r, nil
}

// funcs builds the template helpers. money is rebound per render so each
// document uses its own currency.
func (r *Renderer) funcs(unit currency.Unit) template.FuncMap {
	printer := message.NewPrinter(r.tag)
	return template.FuncMap{
		"money": func(amount decimal.Decimal) string {
			return r.formatMoney(printer, unit, amount)
		},
		"percent": func(rate decimal.Decimal) string {
			return rate.Mul(decimal.NewFromInt(100)).String() + "%"
		},
		"date": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return t.UTC().Format("January 2, 2006")
		},
	}
}

// formatMoney rounds to the currency scale in decimal, then hands x/text a
// float64 for grouping. float64 holds 15 significant digits, so amounts print
// exactly to the cent below 10^13.
func (r *Renderer) formatMoney(printer *message.Printer, unit currency.Unit, amount decimal.Decimal) string {
	scale, _ := currency.Standard.Rounding(unit)
	value := amount.Round(int32(scale)).InexactFloat64()
	symbol := printer.Sprint(currency.Symbol(unit))
	digits := printer.Sprint(number.Decimal(value, number.MinFractionDigits(scale), number.MaxFractionDigits(scale)))
	return symbol + digits
}

func (r *Renderer) render(kind string, doc document) (*Email, error) {
	tpl, ok := r.templates[kind]
	if !ok {
		return nil, fmt.Errorf("unknown document kind %q", kind)
	}

	unit := r.fallback
	if doc.Currency != "" {
		if parsed, err := currency.ParseISO(doc.Currency); err == nil {
			unit = parsed
		}
	}
	tpl, err := tpl.Clone()
	if err != nil {
		return nil, fmt.Errorf("clone %s template: %w", kind, err)
	}
	tpl.Funcs(r.funcs(unit))

	doc.Lang = r.tag.String()
	doc.Company = r.opts.CompanyName
	doc.Contact = r.opts.ContactEmail

	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, "layout", doc); err != nil {
		return nil, fmt.Errorf("render %s: %w", kind, err)
	}
	return &Email{Subject: doc.Subject, HTML: buf.String()}, nil
}
