package sections

// Heading is an accepted heading text and the short code consumers use for it.
type Heading struct {
	Text string `json:"text"`
	Code string `json:"code"`
}

// Whitelist is an immutable set of accepted heading texts. Matching is exact
// and case-sensitive.
type Whitelist struct {
	codes    map[string]string
	headings []Heading
}

// NewWhitelist builds a whitelist from headings. A repeated text keeps the
// last code.
func NewWhitelist(headings ...Heading) *Whitelist {
	w := &Whitelist{codes: make(map[string]string, len(headings))}
	for _, h := range headings {
		if _, ok := w.codes[h.Text]; !ok {
			w.headings = append(w.headings, h)
		} else {
			for i := range w.headings {
				if w.headings[i].Text == h.Text {
					w.headings[i].Code = h.Code
				}
			}
		}
		w.codes[h.Text] = h.Code
	}
	return w
}

// Contains reports whether text is accepted.
func (w *Whitelist) Contains(text string) bool {
	_, ok := w.codes[text]
	return ok
}

// Code returns the canonical code for text.
func (w *Whitelist) Code(text string) (string, bool) {
	c, ok := w.codes[text]
	return c, ok
}

// Headings returns the accepted headings in declaration order.
func (w *Whitelist) Headings() []Heading {
	return append([]Heading(nil), w.headings...)
}

// TopLevel lists the report sections that are extracted.
var TopLevel = NewWhitelist(
	Heading{Text: "Vulnerability Summary", Code: "VULN"},
	Heading{Text: "Patch Compliance", Code: "PATCH"},
	Heading{Text: "Asset Inventory", Code: "ASSET"},
	Heading{Text: "Access Review", Code: "ACCESS"},
	Heading{Text: "Incident Log", Code: "INC"},
)

// SubLevel lists the subsections whose tables are extracted.
var SubLevel = NewWhitelist(
	Heading{Text: "Critical", Code: "CRIT"},
	Heading{Text: "High", Code: "HIGH"},
	Heading{Text: "Medium", Code: "MED"},
	Heading{Text: "Low", Code: "LOW"},
	Heading{Text: "Servers", Code: "SRV"},
	Heading{Text: "Workstations", Code: "WKS"},
	Heading{Text: "Network Devices", Code: "NET"},
	Heading{Text: "Privileged Accounts", Code: "PRIV"},
	Heading{Text: "Service Accounts", Code: "SVC"},
	Heading{Text: "Open", Code: "OPEN"},
	Heading{Text: "Resolved", Code: "RSLV"},
)
