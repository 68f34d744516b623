package template

import (
	"html"
	"strings"
)

const (
	documentOpen  = `<article class="proposal-document">`
	documentClose = `</article>`
)

// Result содержит документ и некритичные предупреждения.
type Result struct {
	Document string
	Warnings []Warning
}

// Renderer превращает блоки и переменные в документ. Не имеет состояния кроме реестра
// и для одинаковых входных данных всегда возвращает побайтно одинаковый результат.
type Renderer struct {
	registry *Registry
}

func NewRenderer(registry *Registry) *Renderer {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Renderer{registry: registry}
}

// Render никогда не возвращает ошибку: проблемы отдельных блоков попадают в Warnings,
// а сам блок заменяется пустой заглушкой.
func (r *Renderer) Render(blocks []Block, vars Variables) Result {
	var (
		doc      strings.Builder
		warnings []Warning
	)

	doc.WriteString(documentOpen)
	for _, block := range blocks {
		doc.WriteString("\n")

		renderer, ok := r.registry.Lookup(block.Type)
		if !ok {
			warnings = append(warnings, Warning{
				BlockID:   block.ID,
				BlockType: block.Type,
				Message:   "неизвестный тип блока",
			})
			writePlaceholder(&doc, block)
			continue
		}

		props, resolveWarnings := ResolveProperties(block, vars)
		warnings = append(warnings, resolveWarnings...)

		var section strings.Builder
		if err := renderer.Render(&section, block, props); err != nil {
			warnings = append(warnings, Warning{
				BlockID:   block.ID,
				BlockType: block.Type,
				Message:   "блок не отрисован: " + err.Error(),
			})
			writePlaceholder(&doc, block)
			continue
		}
		doc.WriteString(section.String())
	}
	doc.WriteString("\n")
	doc.WriteString(documentClose)

	return Result{Document: doc.String(), Warnings: warnings}
}

func writePlaceholder(doc *strings.Builder, block Block) {
	doc.WriteString(`<section class="block block-unknown" data-block-type="`)
	doc.WriteString(html.EscapeString(string(block.Type)))
	doc.WriteString(`"></section>`)
}
