package pinboard

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/google/go-querystring/query"
)

const dateLayout = "2006-01-02"

// MaxTitleLength is the longest bookmark title, in characters, posts/add accepts.
const MaxTitleLength = 255

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("pinboardtag", isTag)
	return v
}

// isTag accepts up to 255 characters with no commas or whitespace.
func isTag(fl validator.FieldLevel) bool {
	tag := fl.Field().String()
	if tag == "" || len([]rune(tag)) > 255 {
		return false
	}
	return !strings.ContainsFunc(tag, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

// YesNo is a flag the API spells as the literal "yes" or "no".
type YesNo bool

// Flag returns a *YesNo for use in options structs.
func Flag(b bool) *YesNo {
	yn := YesNo(b)
	return &yn
}

func (b YesNo) String() string {
	if b {
		return "yes"
	}
	return "no"
}

// EncodeValues implements query.Encoder.
func (b YesNo) EncodeValues(key string, v *url.Values) error {
	v.Set(key, b.String())
	return nil
}

func (b *YesNo) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var flag bool
		if err := json.Unmarshal(data, &flag); err != nil {
			return fmt.Errorf("invalid yes/no value %s", data)
		}
		*b = YesNo(flag)
		return nil
	}
	switch s {
	case "yes":
		*b = true
	case "no", "":
		*b = false
	default:
		return fmt.Errorf("invalid yes/no value %q", s)
	}
	return nil
}

func (b YesNo) MarshalJSON() ([]byte, error) {
	return json.Marshal(bool(b))
}

// Day is a calendar date, encoded as 2006-01-02 in UTC.
type Day struct {
	time.Time
}

// EncodeValues implements query.Encoder.
func (d Day) EncodeValues(key string, v *url.Values) error {
	v.Set(key, d.UTC().Format(dateLayout))
	return nil
}

// AddOptions holds the optional posts/add arguments.
type AddOptions struct {
	// Extended is the bookmark description.
	Extended string   `url:"extended,omitempty" validate:"max=65536"`
	Tags     []string `url:"tags,space,omitempty" validate:"max=100,dive,pinboardtag"`
	// Time is the creation time; the server defaults it to now.
	Time    time.Time `url:"dt,omitempty"`
	Replace *YesNo    `url:"replace,omitempty"`
	Shared  *YesNo    `url:"shared,omitempty"`
	ToRead  *YesNo    `url:"toread,omitempty"`
}

type addParams struct {
	URL string `url:"url" validate:"required,url"`
	// Title is limited to MaxTitleLength.
	Title string `url:"description" validate:"required,max=255"`
	AddOptions
}

type urlParams struct {
	URL string `url:"url" validate:"required,url"`
}

// RecentOptions holds the optional posts/recent arguments.
type RecentOptions struct {
	Tags  []string `url:"tag,space,omitempty" validate:"max=3,dive,pinboardtag"`
	Count int      `url:"count,omitempty" validate:"min=0,max=100"`
}

// AllOptions holds the optional posts/all arguments.
type AllOptions struct {
	Tags    []string  `url:"tag,space,omitempty" validate:"max=3,dive,pinboardtag"`
	Start   int       `url:"start,omitempty" validate:"min=0"`
	Results int       `url:"results,omitempty" validate:"min=0"`
	From    time.Time `url:"fromdt,omitempty"`
	To      time.Time `url:"todt,omitempty"`
	// Meta asks for a change detection signature on each post.
	Meta bool `url:"meta,int,omitempty"`
}

// GetOptions holds the optional posts/get arguments.
type GetOptions struct {
	Tags []string `url:"tag,space,omitempty" validate:"max=3,dive,pinboardtag"`
	Date Day      `url:"dt,omitempty"`
	URL  string   `url:"url,omitempty" validate:"omitempty,url"`
	Meta *YesNo   `url:"meta,omitempty"`
}

// DatesOptions holds the optional posts/dates arguments.
type DatesOptions struct {
	Tags []string `url:"tag,space,omitempty" validate:"max=3,dive,pinboardtag"`
}

type tagParams struct {
	Tag string `url:"tag" validate:"required,pinboardtag"`
}

type renameParams struct {
	Old string `url:"old" validate:"required,pinboardtag"`
	New string `url:"new" validate:"required,pinboardtag"`
}

// encodeParams validates opts and turns it into query parameters.
// A nil opts yields no parameters.
func encodeParams(opts any) (url.Values, error) {
	if opts == nil {
		return nil, nil
	}
	if err := validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	values, err := query.Values(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return values, nil
}

// utc moves t to UTC so it encodes as 2010-12-11T19:48:02Z.
func utc(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC().Truncate(time.Second)
}
