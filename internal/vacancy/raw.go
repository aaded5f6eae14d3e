package vacancy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Text decodes a JSON scalar of any type into its string form. The source API
// is loose about types: codes arrive as numbers or strings, absent values as
// null or false.
type Text string

// UnmarshalJSON implements json.Unmarshaler
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")), bytes.Equal(data, []byte("false")):
		*t = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(strings.TrimSpace(s))
	case data[0] == '{' || data[0] == '[':
		return fmt.Errorf("vacancy: cannot decode %s into text", data)
	default:
		*t = Text(data)
	}
	return nil
}

// String returns the value as a plain string
func (t Text) String() string {
	return string(t)
}

// Amount is an optional money value
type Amount struct {
	decimal.NullDecimal
}

// UnmarshalJSON accepts numbers, numeric strings, null, "" and 0-as-absent
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	s = strings.TrimSpace(s)
	if s == "" || s == "null" || s == "false" {
		a.NullDecimal = decimal.NullDecimal{}
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("vacancy: bad amount %q: %w", s, err)
	}
	if d.IsZero() {
		a.NullDecimal = decimal.NullDecimal{}
		return nil
	}
	a.NullDecimal = decimal.NullDecimal{Decimal: d, Valid: true}
	return nil
}

// MarshalJSON writes null for an absent amount
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return []byte(a.Decimal.String()), nil
}

// String returns the amount or "" when absent
func (a Amount) String() string {
	if !a.Valid {
		return ""
	}
	return a.Decimal.String()
}

// Page is one response page of the vacancy API
type Page struct {
	Status Text `json:"status"`
	Meta   struct {
		Total Text `json:"total"`
		Limit Text `json:"limit"`
	} `json:"meta"`
	Results struct {
		Vacancies []Raw `json:"vacancies"`
	} `json:"results"`
}

// Raw is one vacancy record as delivered by the API
type Raw struct {
	Vacancy RawVacancy `json:"vacancy"`
}

// RawVacancy holds the fields of a vacancy the pipeline keeps
type RawVacancy struct {
	ID     Text `json:"id"`
	Source Text `json:"source"`
	Region struct {
		Code Text `json:"region_code"`
		Name Text `json:"name"`
	} `json:"region"`
	Company      RawCompany `json:"company"`
	CreationDate Text       `json:"creation-date"`
	ModifyDate   Text       `json:"modify-date"`
	Salary       Text       `json:"salary"`
	SalaryMin    Amount     `json:"salary_min"`
	SalaryMax    Amount     `json:"salary_max"`
	Currency     Text       `json:"currency"`
	JobName      Text       `json:"job-name"`
	URL          Text       `json:"vac_url"`
	Employment   Text       `json:"employment"`
	Schedule     Text       `json:"schedule"`
	Duty         Text       `json:"duty"`
	Category     struct {
		Specialisation Text `json:"specialisation"`
		Industry       Text `json:"industry"`
	} `json:"category"`
	Requirement struct {
		Education     Text `json:"education"`
		Experience    Text `json:"experience"`
		Qualification Text `json:"qualification"`
	} `json:"requirement"`
	Addresses struct {
		Address []RawAddress `json:"address"`
	} `json:"addresses"`
	SocialProtected Text `json:"social_protected"`
	Term            struct {
		Text Text `json:"text"`
	} `json:"term"`
}

// RawAddress is one address entry of a vacancy
type RawAddress struct {
	Location Text `json:"location"`
	Lng      Text `json:"lng"`
	Lat      Text `json:"lat"`
}

// RawCompany is the employer block of a vacancy
type RawCompany struct {
	CompanyCode    Text `json:"companycode"`
	INN            Text `json:"inn"`
	KPP            Text `json:"kpp"`
	OGRN           Text `json:"ogrn"`
	Name           Text `json:"name"`
	HRAgency       Text `json:"hr-agency"`
	URL            Text `json:"url"`
	Site           Text `json:"site"`
	Phone          Text `json:"phone"`
	Fax            Text `json:"fax"`
	Email          Text `json:"email"`
	IndustryBranch Text `json:"code_industry_branch"`
}
