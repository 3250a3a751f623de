package input

import "net/url"

// Input is the fully parsed request specification: everything the exchange
// package needs to build an *http.Request.
type Input struct {
	Method     Method
	URL        *url.URL
	Parameters []Field
	Header     Header
	Body       Body
}

type Method string

type Header struct {
	Fields []Field
}

type BodyType int

const (
	EmptyBody BodyType = iota
	JSONBody
	FormBody
	RawBody
)

type Body struct {
	BodyType BodyType
	Fields   []Field // in CLI order; raw JSON fields carry IsRawJSON
	Files    []Field // used only when BodyType == FormBody
	Raw      []byte  // used only when BodyType == RawBody
}

type Field struct {
	Name      string
	Value     string
	IsFile    bool
	IsRawJSON bool // Value is a JSON literal rather than a plain string
}

type Options struct {
	JSON      bool
	Form      bool
	ReadStdin bool
}
