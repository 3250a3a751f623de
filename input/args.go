package input

import (
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/url"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

var (
	reMethod          = regexp.MustCompile(`^[a-zA-Z]+$`)
	reHeaderFieldName = regexp.MustCompile("^[-!#$%&'*+.^_|~a-zA-Z0-9]+$")
	reScheme          = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+-.]*://`)
	emptyMethod       = Method("")
)

type itemType int

const (
	unknownItem itemType = iota
	httpHeaderItem
	urlParameterItem
	dataFieldItem
	rawJSONFieldItem
	formFileFieldItem
)

// UsageError indicates a malformed invocation rather than bad item content.
// The top level prints usage help and exits with the usage status for it.
type UsageError string

func (e *UsageError) Error() string {
	return string(*e)
}

// NewUsageError wraps message as a *UsageError with a stack trace.
func NewUsageError(message string) error {
	u := UsageError(message)
	return errors.WithStack(&u)
}

// ItemError indicates a request item that matched the grammar but carries
// invalid content (empty key, malformed JSON literal, conflicting body mode).
type ItemError struct {
	Item   string
	Reason string
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("bad request item %q: %s", e.Item, e.Reason)
}

func newItemError(item, reason string) error {
	return errors.WithStack(&ItemError{Item: item, Reason: reason})
}

type state struct {
	preferredBodyType BodyType
	explicitForm      bool
	stdinConsumed     bool
}

// ParseArgs turns the positional arguments [METHOD] URL [ITEM...] into an
// Input. Each ITEM is classified by its first unescaped separator; see
// splitItem. The body mode is resolved after all items are consumed: no
// fields means an empty body, a := item forces JSON, anything else follows
// the preferred type from options (JSON unless --form).
func ParseArgs(args []string, stdin io.Reader, options *Options) (*Input, error) {
	var argMethod string
	var argURL string
	var argItems []string
	switch len(args) {
	case 0:
		return nil, NewUsageError("URL is required")
	case 1:
		argURL = args[0]
	default:
		if reMethod.MatchString(args[0]) {
			argMethod = args[0]
			argURL = args[1]
			argItems = args[2:]
		} else {
			argURL = args[0]
			argItems = args[1:]
		}
	}

	in := Input{}
	state := state{}

	u, err := parseURL(argURL)
	if err != nil {
		return nil, err
	}
	in.URL = u

	state.preferredBodyType, state.explicitForm, err = determinePreferredBodyType(options)
	if err != nil {
		return nil, err
	}

	for _, arg := range argItems {
		if err := parseItem(arg, stdin, &state, &in); err != nil {
			return nil, err
		}
	}
	if options.ReadStdin && !state.stdinConsumed {
		if in.Body.BodyType != EmptyBody {
			return nil, errors.New("request body (from stdin) and request item (key=value) cannot be mixed")
		}
		in.Body.BodyType = RawBody
		in.Body.Raw, err = ioutil.ReadAll(stdin)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read stdin")
		}
		state.stdinConsumed = true
	}

	if argMethod != "" {
		method, err := parseMethod(argMethod)
		if err != nil {
			return nil, err
		}
		in.Method = method
	} else {
		in.Method = guessMethod(&in)
	}

	return &in, nil
}

func determinePreferredBodyType(options *Options) (BodyType, bool, error) {
	if options.JSON && options.Form {
		return EmptyBody, false, NewUsageError("you cannot specify both of --json and --form")
	}
	if options.Form {
		return FormBody, true, nil
	}
	return JSONBody, false, nil
}

func parseMethod(s string) (Method, error) {
	if !reMethod.MatchString(s) {
		return emptyMethod, errors.Errorf("METHOD must consist of alphabets: %s", s)
	}

	method := Method(strings.ToUpper(s))
	return method, nil
}

func guessMethod(in *Input) Method {
	if in.Body.BodyType == EmptyBody {
		return Method("GET")
	} else {
		return Method("POST")
	}
}

func parseURL(s string) (*url.URL, error) {
	defaultScheme := "http"
	defaultHost := "localhost"

	// ex) :8080/hello or /hello
	if strings.HasPrefix(s, ":") || strings.HasPrefix(s, "/") {
		s = defaultHost + s
	}

	// ex) example.com/hello
	if !reScheme.MatchString(s) {
		s = defaultScheme + "://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return nil, NewUsageError("Invalid URL: " + s)
	}
	u.Host = strings.TrimSuffix(u.Host, ":")
	if u.Path == "" {
		u.Path = "/"
	}
	return u, nil
}

func parseItem(s string, stdin io.Reader, state *state, in *Input) error {
	itemType, name, value := splitItem(s)
	if itemType != unknownItem && name == "" {
		return newItemError(s, "key must not be empty")
	}
	switch itemType {
	case dataFieldItem:
		in.Body.BodyType = state.preferredBodyType
		field, err := parseField(name, value, stdin, state)
		if err != nil {
			return err
		}
		in.Body.Fields = append(in.Body.Fields, field)
	case rawJSONFieldItem:
		if state.explicitForm {
			return newItemError(s, "raw JSON field cannot be used in a form body (drop --form or use key=value)")
		}
		in.Body.BodyType = JSONBody
		field, err := parseField(name, value, stdin, state)
		if err != nil {
			return err
		}
		if !json.Valid([]byte(field.Value)) {
			return newItemError(s, "value is not valid JSON")
		}
		field.IsRawJSON = true
		in.Body.Fields = append(in.Body.Fields, field)
	case httpHeaderItem:
		if !isValidHeaderFieldName(name) {
			return newItemError(s, "invalid header field name")
		}
		field, err := parseField(name, strings.TrimSpace(value), stdin, state)
		if err != nil {
			return err
		}
		in.Header.Fields = append(in.Header.Fields, field)
	case urlParameterItem:
		field, err := parseField(name, value, stdin, state)
		if err != nil {
			return err
		}
		in.Parameters = append(in.Parameters, field)
	case formFileFieldItem:
		if state.preferredBodyType != FormBody {
			return newItemError(s, "form file field cannot be used in non-form body (perhaps you meant --form?)")
		}
		in.Body.BodyType = FormBody
		field, err := parseField(name, "@"+value, stdin, state)
		if err != nil {
			return err
		}
		in.Body.Files = append(in.Body.Files, field)
	default:
		return NewUsageError("unknown request item: " + s)
	}
	return nil
}

// splitItem classifies one argument by scanning for its first unescaped
// separator. A separator preceded by a backslash is literal; the backslash
// is stripped. Backslashes before non-separator characters are kept.
func splitItem(s string) (itemType, string, string) {
	var key strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			if i+1 < len(s) && isSeparator(s[i+1]) {
				i++
				key.WriteByte(s[i])
			} else {
				key.WriteByte(c)
			}
		case ':':
			if i+1 < len(s) && s[i+1] == '=' {
				return rawJSONFieldItem, key.String(), unescapeValue(s[i+2:])
			}
			return httpHeaderItem, key.String(), unescapeValue(s[i+1:])
		case '=':
			if i+1 < len(s) && s[i+1] == '=' {
				return urlParameterItem, key.String(), unescapeValue(s[i+2:])
			}
			return dataFieldItem, key.String(), unescapeValue(s[i+1:])
		case '@':
			return formFileFieldItem, key.String(), unescapeValue(s[i+1:])
		default:
			key.WriteByte(c)
		}
	}
	return unknownItem, "", ""
}

func isSeparator(c byte) bool {
	return c == ':' || c == '=' || c == '@' || c == '\\'
}

func unescapeValue(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && isSeparator(s[i+1]) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isValidHeaderFieldName(s string) bool {
	return reHeaderFieldName.MatchString(s)
}

func parseField(name, value string, stdin io.Reader, state *state) (Field, error) {
	if strings.HasPrefix(value, "@") {
		if value[1:] == "-" {
			b, err := ioutil.ReadAll(stdin)
			if err != nil {
				return Field{}, errors.Wrapf(err, "reading stdin for '%s'", name)
			}
			state.stdinConsumed = true
			return Field{Name: name, Value: string(b), IsFile: false}, nil
		}
		return Field{Name: name, Value: value[1:], IsFile: true}, nil
	}
	return Field{Name: name, Value: value, IsFile: false}, nil
}
