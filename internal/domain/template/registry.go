package template

import (
	"encoding/json"
	"fmt"
	htmltemplate "html/template"
	"io"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/ignatzorin/proposal-engine/internal/domain/pricing"
)

// BlockRenderer отрисовывает блок одного типа по уже разрешённым свойствам.
type BlockRenderer interface {
	Render(w io.Writer, block Block, props map[string]any) error
}

// Registry хранит известные типы блоков. Новые добавляются через Register.
type Registry struct {
	mu        sync.RWMutex
	renderers map[BlockType]BlockRenderer
}

func NewRegistry() *Registry {
	return &Registry{renderers: make(map[BlockType]BlockRenderer)}
}

func (r *Registry) Register(blockType BlockType, renderer BlockRenderer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderers[blockType] = renderer
}

func (r *Registry) Lookup(blockType BlockType) (BlockRenderer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	renderer, ok := r.renderers[blockType]
	return renderer, ok
}

// DefaultRegistry содержит все стандартные блоки редактора предложений.
func DefaultRegistry() *Registry {
	reg := NewRegistry()
	reg.Register(BlockHero, newTypedBlock[HeroProps](heroTemplate, nil))
	reg.Register(BlockObjective, newTypedBlock[ObjectiveProps](objectiveTemplate, nil))
	reg.Register(BlockScope, newTypedBlock[ScopeProps](scopeTemplate, nil))
	reg.Register(BlockPricing, newTypedBlock[PricingProps](pricingTemplate, preparePricing))
	reg.Register(BlockTimeline, newTypedBlock[TimelineProps](timelineTemplate, nil))
	reg.Register(BlockTerms, newTypedBlock[TermsProps](termsTemplate, nil))
	reg.Register(BlockSignature, newTypedBlock[SignatureProps](signatureTemplate, nil))
	return reg
}

type HeroProps struct {
	Title    Text `json:"title"`
	Subtitle Text `json:"subtitle"`
	Client   Text `json:"client"`
	Date     Text `json:"date"`
}

type ObjectiveProps struct {
	Title Text     `json:"title"`
	Text  Text     `json:"text"`
	Goals TextList `json:"goals"`
}

type ScopeProps struct {
	Title       Text     `json:"title"`
	Description Text     `json:"description"`
	Items       TextList `json:"items"`
	Exclusions  TextList `json:"exclusions"`
}

type PricingLine struct {
	Description Text   `json:"description"`
	Quantity    Amount `json:"quantity"`
	UnitPrice   Amount `json:"unit_price"`
	Discount    Amount `json:"discount"`
	TaxRate     Amount `json:"tax_rate"`
}

type PricingProps struct {
	Title    Text          `json:"title"`
	Currency Text          `json:"currency"`
	Note     Text          `json:"note"`
	Items    []PricingLine `json:"items"`

	Rows   []pricingRow   `json:"-"`
	Totals pricing.Totals `json:"-"`
}

type pricingRow struct {
	Description string
	Quantity    string
	UnitPrice   string
	Discount    string
	TaxRate     string
	Amount      string
}

type TimelinePhase struct {
	Name        Text `json:"name"`
	Duration    Text `json:"duration"`
	Description Text `json:"description"`
}

type TimelineProps struct {
	Title  Text            `json:"title"`
	Phases []TimelinePhase `json:"phases"`
}

type TermsProps struct {
	Title Text     `json:"title"`
	Text  Text     `json:"text"`
	Items TextList `json:"items"`
}

type SignatureProps struct {
	Title      Text `json:"title"`
	SignerName Text `json:"signer_name"`
	SignerRole Text `json:"signer_role"`
	Note       Text `json:"note"`
}

// preparePricing раскрывает массив позиций в строки таблицы и считает итоги.
func preparePricing(p *PricingProps) error {
	items := make([]pricing.Item, 0, len(p.Items))
	p.Rows = make([]pricingRow, 0, len(p.Items))
	for _, line := range p.Items {
		item := pricing.Item{
			Quantity:  line.Quantity.Decimal,
			UnitPrice: line.UnitPrice.Decimal,
			Discount:  line.Discount.Decimal,
			TaxRate:   line.TaxRate.Decimal,
		}
		items = append(items, item)
		p.Rows = append(p.Rows, pricingRow{
			Description: line.Description.String(),
			Quantity:    item.Quantity.String(),
			UnitPrice:   item.UnitPrice.StringFixed(pricing.Scale),
			Discount:    item.Discount.StringFixed(pricing.Scale),
			TaxRate:     item.TaxRate.String(),
			Amount:      item.TaxableAmount().StringFixed(pricing.Scale),
		})
	}
	totals, err := pricing.Calculate(items)
	if err != nil {
		return err
	}
	p.Totals = totals
	return nil
}

type typedBlock[P any] struct {
	tmpl    *htmltemplate.Template
	prepare func(*P) error
}

type blockView[P any] struct {
	ID    string
	Props P
}

func newTypedBlock[P any](source string, prepare func(*P) error) *typedBlock[P] {
	tmpl := htmltemplate.Must(htmltemplate.New("block").Funcs(htmltemplate.FuncMap{
		"money": func(v decimal.Decimal) string { return v.StringFixed(pricing.Scale) },
	}).Parse(source))
	return &typedBlock[P]{tmpl: tmpl, prepare: prepare}
}

func (b *typedBlock[P]) Render(w io.Writer, block Block, props map[string]any) error {
	var typed P
	raw, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("template: свойства блока %s: %w", block.Type, err)
	}
	if err := json.Unmarshal(raw, &typed); err != nil {
		return fmt.Errorf("template: схема блока %s: %w", block.Type, err)
	}
	if b.prepare != nil {
		if err := b.prepare(&typed); err != nil {
			return err
		}
	}
	return b.tmpl.Execute(w, blockView[P]{ID: block.ID, Props: typed})
}

const heroTemplate = `<section class="block block-hero"{{with .ID}} data-block-id="{{.}}"{{end}}>` +
	`<h1>{{.Props.Title}}</h1>` +
	`{{with .Props.Subtitle}}<p class="subtitle">{{.}}</p>{{end}}` +
	`{{with .Props.Client}}<p class="client">{{.}}</p>{{end}}` +
	`{{with .Props.Date}}<p class="date">{{.}}</p>{{end}}` +
	`</section>`

const objectiveTemplate = `<section class="block block-objective"{{with .ID}} data-block-id="{{.}}"{{end}}>` +
	`{{with .Props.Title}}<h2>{{.}}</h2>{{end}}` +
	`{{with .Props.Text}}<p>{{.}}</p>{{end}}` +
	`{{with .Props.Goals}}<ul>{{range .}}<li>{{.}}</li>{{end}}</ul>{{end}}` +
	`</section>`

const scopeTemplate = `<section class="block block-scope"{{with .ID}} data-block-id="{{.}}"{{end}}>` +
	`{{with .Props.Title}}<h2>{{.}}</h2>{{end}}` +
	`{{with .Props.Description}}<p>{{.}}</p>{{end}}` +
	`{{with .Props.Items}}<ul class="deliverables">{{range .}}<li>{{.}}</li>{{end}}</ul>{{end}}` +
	`{{with .Props.Exclusions}}<ul class="exclusions">{{range .}}<li>{{.}}</li>{{end}}</ul>{{end}}` +
	`</section>`

const pricingTemplate = `<section class="block block-pricing"{{with .ID}} data-block-id="{{.}}"{{end}}>` +
	`{{with .Props.Title}}<h2>{{.}}</h2>{{end}}` +
	`<table class="pricing">` +
	`<thead><tr><th>Description</th><th>Qty</th><th>Unit price</th><th>Discount</th><th>Tax %</th><th>Amount</th></tr></thead>` +
	`<tbody>{{range .Props.Rows}}<tr><td>{{.Description}}</td><td>{{.Quantity}}</td><td>{{.UnitPrice}}</td><td>{{.Discount}}</td><td>{{.TaxRate}}</td><td>{{.Amount}}</td></tr>{{end}}</tbody>` +
	`<tfoot>` +
	`<tr class="subtotal"><td colspan="5">Subtotal</td><td>{{money .Props.Totals.Subtotal}}</td></tr>` +
	`<tr class="discount"><td colspan="5">Discount</td><td>{{money .Props.Totals.DiscountAmount}}</td></tr>` +
	`<tr class="tax"><td colspan="5">Tax</td><td>{{money .Props.Totals.TaxAmount}}</td></tr>` +
	`<tr class="total"><td colspan="5">Total{{with .Props.Currency}} ({{.}}){{end}}</td><td>{{money .Props.Totals.TotalAmount}}</td></tr>` +
	`</tfoot></table>` +
	`{{with .Props.Note}}<p class="note">{{.}}</p>{{end}}` +
	`</section>`

const timelineTemplate = `<section class="block block-timeline"{{with .ID}} data-block-id="{{.}}"{{end}}>` +
	`{{with .Props.Title}}<h2>{{.}}</h2>{{end}}` +
	`<ol>{{range .Props.Phases}}<li><strong>{{.Name}}</strong>{{with .Duration}} <span class="duration">{{.}}</span>{{end}}{{with .Description}}<p>{{.}}</p>{{end}}</li>{{end}}</ol>` +
	`</section>`

const termsTemplate = `<section class="block block-terms"{{with .ID}} data-block-id="{{.}}"{{end}}>` +
	`{{with .Props.Title}}<h2>{{.}}</h2>{{end}}` +
	`{{with .Props.Text}}<p>{{.}}</p>{{end}}` +
	`{{with .Props.Items}}<ol>{{range .}}<li>{{.}}</li>{{end}}</ol>{{end}}` +
	`</section>`

const signatureTemplate = `<section class="block block-signature"{{with .ID}} data-block-id="{{.}}"{{end}}>` +
	`{{with .Props.Title}}<h2>{{.}}</h2>{{end}}` +
	`<div class="signer">{{with .Props.SignerName}}<span class="name">{{.}}</span>{{end}}{{with .Props.SignerRole}}<span class="role">{{.}}</span>{{end}}</div>` +
	`{{with .Props.Note}}<p class="note">{{.}}</p>{{end}}` +
	`</section>`
