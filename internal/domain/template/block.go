// Package template отрисовывает блочный шаблон предложения с переменными в итоговый документ.
package template

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type BlockType string

const (
	BlockHero      BlockType = "hero"
	BlockObjective BlockType = "objective"
	BlockScope     BlockType = "scope"
	BlockPricing   BlockType = "pricing"
	BlockTimeline  BlockType = "timeline"
	BlockTerms     BlockType = "terms"
	BlockSignature BlockType = "signature"
)

// Properties блока хранит значения как прислал редактор:
// строки, массивы строк, вложенные объекты и плейсхолдеры вида {{path.to.value}}.
type Block struct {
	ID         string         `json:"id,omitempty"`
	Type       BlockType      `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Variables: дерево переменных произвольной глубины.
type Variables map[string]any

// Warning описывает некритичную проблему при отрисовке (неразрешённый плейсхолдер, неизвестный блок).
type Warning struct {
	BlockID   string    `json:"block_id,omitempty"`
	BlockType BlockType `json:"block_type"`
	Path      string    `json:"path,omitempty"`
	Message   string    `json:"message"`
}

// Text принимает любое скалярное JSON-значение,
// чтобы плейсхолдер, разрешившийся в число, не ломал отрисовку.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*t = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	if data[0] == '{' || data[0] == '[' {
		// Составные значения в текстовом поле не отображаются.
		*t = ""
		return nil
	}
	*t = Text(string(data))
	return nil
}

func (t Text) String() string {
	return string(t)
}

// В TextList одиночное значение превращается в список из одного элемента.
type TextList []Text

func (l *TextList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*l = nil
		return nil
	}
	if data[0] != '[' {
		var single Text
		if err := single.UnmarshalJSON(data); err != nil {
			return err
		}
		if single == "" {
			*l = nil
			return nil
		}
		*l = TextList{single}
		return nil
	}
	var items []Text
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*l = items
	return nil
}

// В Amount пустая строка (неразрешённый плейсхолдер) считается нулём.
type Amount struct {
	decimal.Decimal
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
	}
	if raw == "" || raw == "null" {
		a.Decimal = decimal.Zero
		return nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return err
	}
	a.Decimal = value
	return nil
}

// DecodePricingLines разбирает массив позиций из дерева переменных (например, pricing.items).
func DecodePricingLines(value any) ([]PricingLine, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var lines []PricingLine
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}
