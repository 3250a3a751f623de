package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strings"

	"github.com/logrusorgru/aurora"
	"github.com/pkg/errors"
)

const indentWidth = 4

type PrettyPrinter struct {
	writer        io.Writer
	plain         Printer
	aurora        aurora.Aurora
	headerPalette *HeaderPalette
	jsonPalette   *JSONPalette
}

type PrettyPrinterConfig struct {
	Writer      io.Writer
	EnableColor bool
}

type HeaderPalette struct {
	Method         aurora.Color
	URL            aurora.Color
	Proto          aurora.Color
	SuccessStatus  aurora.Color
	RedirectStatus aurora.Color
	ErrorStatus    aurora.Color
	FieldName      aurora.Color
	FieldValue     aurora.Color
	FieldSeparator aurora.Color
}

var defaultHeaderPalette = HeaderPalette{
	Method:         aurora.WhiteFg | aurora.BoldFm,
	URL:            aurora.GreenFg,
	Proto:          aurora.BlueFg,
	SuccessStatus:  aurora.GreenFg | aurora.BoldFm,
	RedirectStatus: aurora.BrownFg | aurora.BoldFm,
	ErrorStatus:    aurora.RedFg | aurora.BoldFm,
	FieldName:      aurora.WhiteFg,
	FieldValue:     aurora.CyanFg,
	FieldSeparator: aurora.WhiteFg,
}

type JSONPalette struct {
	Key     aurora.Color
	String  aurora.Color
	Number  aurora.Color
	Boolean aurora.Color
	Null    aurora.Color
	Symbol  aurora.Color
}

var defaultJSONPalette = JSONPalette{
	Key:     aurora.BlueFg,
	String:  aurora.CyanFg,
	Number:  aurora.MagentaFg,
	Boolean: aurora.BrownFg,
	Null:    aurora.WhiteFg,
	Symbol:  aurora.WhiteFg,
}

func NewPrettyPrinter(config PrettyPrinterConfig) Printer {
	return &PrettyPrinter{
		writer:        config.Writer,
		plain:         NewPlainPrinter(config.Writer),
		aurora:        aurora.NewAurora(config.EnableColor),
		headerPalette: &defaultHeaderPalette,
		jsonPalette:   &defaultJSONPalette,
	}
}

func (p *PrettyPrinter) statusColor(statusCode int) aurora.Color {
	switch {
	case statusCode < 300:
		return p.headerPalette.SuccessStatus
	case statusCode < 400:
		return p.headerPalette.RedirectStatus
	default:
		return p.headerPalette.ErrorStatus
	}
}

func (p *PrettyPrinter) PrintStatusLine(proto string, status string, statusCode int) error {
	fmt.Fprintf(p.writer, "%s %s\n",
		p.aurora.Colorize(proto, p.headerPalette.Proto),
		p.aurora.Colorize(status, p.statusColor(statusCode)))
	return nil
}

func (p *PrettyPrinter) PrintRequestLine(request *http.Request) error {
	fmt.Fprintf(p.writer, "%s %s %s\n",
		p.aurora.Colorize(request.Method, p.headerPalette.Method),
		p.aurora.Colorize(request.URL.RequestURI(), p.headerPalette.URL),
		p.aurora.Colorize("HTTP/1.1", p.headerPalette.Proto))
	return nil
}

func (p *PrettyPrinter) PrintHeader(header http.Header) error {
	for _, name := range sortedHeaderNames(header) {
		for _, value := range header[name] {
			fmt.Fprintf(p.writer, "%s%s %s\n",
				p.aurora.Colorize(name, p.headerPalette.FieldName),
				p.aurora.Colorize(":", p.headerPalette.FieldSeparator),
				p.aurora.Colorize(value, p.headerPalette.FieldValue))
		}
	}
	fmt.Fprintln(p.writer)
	return nil
}

func isJSON(contentType string) bool {
	contentType = strings.TrimSpace(contentType)

	semicolon := strings.Index(contentType, ";")
	if semicolon != -1 {
		contentType = contentType[:semicolon]
	}

	return contentType == "application/json"
}

func (p *PrettyPrinter) PrintBody(body io.Reader, contentType string) error {
	if !isJSON(contentType) {
		return p.plain.PrintBody(body, contentType)
	}

	content, err := ioutil.ReadAll(body)
	if err != nil {
		return errors.Wrap(err, "reading body")
	}

	// Not every application/json body is valid JSON; emit it untouched then.
	if !json.Valid(content) {
		_, err := p.writer.Write(content)
		return err
	}

	if err := p.printJSON(content); err != nil {
		return err
	}
	fmt.Fprintln(p.writer)
	return nil
}

// printJSON re-indents and colorizes a JSON document. It walks the decoder's
// token stream instead of unmarshaling so that object key order is preserved.
func (p *PrettyPrinter) printJSON(content []byte) error {
	dec := json.NewDecoder(bytes.NewReader(content))
	dec.UseNumber()
	return p.printJSONValue(dec, 0)
}

func (p *PrettyPrinter) printJSONValue(dec *json.Decoder, depth int) error {
	token, err := dec.Token()
	if err != nil {
		return errors.Wrap(err, "tokenizing JSON")
	}
	return p.printJSONToken(dec, token, depth)
}

func (p *PrettyPrinter) printJSONToken(dec *json.Decoder, token json.Token, depth int) error {
	switch v := token.(type) {
	case json.Delim:
		switch v {
		case '{':
			return p.printJSONObject(dec, depth)
		case '[':
			return p.printJSONArray(dec, depth)
		default:
			return errors.Errorf("unexpected delimiter: %v", v)
		}
	case string:
		p.printColored(quoteJSONString(v), p.jsonPalette.String)
	case json.Number:
		p.printColored(v.String(), p.jsonPalette.Number)
	case bool:
		p.printColored(fmt.Sprintf("%v", v), p.jsonPalette.Boolean)
	case nil:
		p.printColored("null", p.jsonPalette.Null)
	default:
		return errors.Errorf("unexpected JSON token: %v", token)
	}
	return nil
}

func (p *PrettyPrinter) printJSONObject(dec *json.Decoder, depth int) error {
	p.printColored("{", p.jsonPalette.Symbol)
	first := true
	for dec.More() {
		if !first {
			p.printColored(",", p.jsonPalette.Symbol)
		}
		first = false
		p.printIndent(depth + 1)

		key, err := dec.Token()
		if err != nil {
			return errors.Wrap(err, "tokenizing JSON")
		}
		name, ok := key.(string)
		if !ok {
			return errors.Errorf("unexpected object key: %v", key)
		}
		p.printColored(quoteJSONString(name), p.jsonPalette.Key)
		p.printColored(": ", p.jsonPalette.Symbol)

		if err := p.printJSONValue(dec, depth+1); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil { // consume '}'
		return errors.Wrap(err, "tokenizing JSON")
	}
	if !first {
		p.printIndent(depth)
	}
	p.printColored("}", p.jsonPalette.Symbol)
	return nil
}

func (p *PrettyPrinter) printJSONArray(dec *json.Decoder, depth int) error {
	p.printColored("[", p.jsonPalette.Symbol)
	first := true
	for dec.More() {
		if !first {
			p.printColored(",", p.jsonPalette.Symbol)
		}
		first = false
		p.printIndent(depth + 1)
		if err := p.printJSONValue(dec, depth+1); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil { // consume ']'
		return errors.Wrap(err, "tokenizing JSON")
	}
	if !first {
		p.printIndent(depth)
	}
	p.printColored("]", p.jsonPalette.Symbol)
	return nil
}

func (p *PrettyPrinter) printIndent(depth int) {
	fmt.Fprintf(p.writer, "\n%s", strings.Repeat(" ", depth*indentWidth))
}

func (p *PrettyPrinter) printColored(s string, color aurora.Color) {
	fmt.Fprint(p.writer, p.aurora.Colorize(s, color))
}

func quoteJSONString(s string) string {
	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(s); err != nil {
		// Strings are always encodable.
		panic(err)
	}
	return strings.TrimSuffix(buffer.String(), "\n")
}
