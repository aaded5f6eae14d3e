// Package vacancy splits raw API records into the company and vacancy
// relations that the store keeps.
package vacancy

import (
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

// Company is an employer, keyed by OGRN
type Company struct {
	OGRN           string `json:"ogrn"`
	INN            string `json:"inn"`
	KPP            string `json:"kpp"`
	CompanyCode    string `json:"companycode"`
	Name           string `json:"name"`
	Address        string `json:"address"`
	HRAgency       bool   `json:"hr_agency"`
	URL            string `json:"url"`
	Site           string `json:"site"`
	Phone          string `json:"phone"`
	Fax            string `json:"fax"`
	Email          string `json:"email"`
	IndustryBranch string `json:"code_industry_branch"`
}

// Vacancy is one job offer, keyed by its source id. MrigoID and OkpdtrID stay
// nil until the matcher resolves them.
type Vacancy struct {
	ID              string     `json:"id"`
	OGRN            string     `json:"ogrn"`
	Source          string     `json:"source"`
	RegionCode      string     `json:"region_code"`
	RegionName      string     `json:"region_name"`
	Address         string     `json:"address"`
	Experience      string     `json:"experience"`
	Employment      string     `json:"employment"`
	Schedule        string     `json:"schedule"`
	JobName         string     `json:"job_name"`
	Specialisation  string     `json:"specialisation"`
	Duty            string     `json:"duty"`
	Education       string     `json:"education"`
	Qualification   string     `json:"qualification"`
	TermText        string     `json:"term_text"`
	SocialProtected string     `json:"social_protected"`
	SalaryMin       Amount     `json:"salary_min"`
	SalaryMax       Amount     `json:"salary_max"`
	Salary          string     `json:"salary"`
	Currency        string     `json:"currency"`
	URL             string     `json:"vac_url"`
	Industry        string     `json:"industry"`
	CreatedAt       string     `json:"creation_date"`
	ModifiedAt      string     `json:"modify_date"`
	DownloadedAt    time.Time  `json:"download_time"`
	MrigoID         *string    `json:"id_mrigo"`
	OkpdtrID        *string    `json:"id_okpdtr"`
	IsClosed        bool       `json:"is_closed"`
	ClosedAt        *time.Time `json:"closed_at,omitempty"`
}

// Batch is the split form of one download
type Batch struct {
	Companies []Company
	Vacancies []Vacancy
	// Skipped counts raw records dropped for lacking an OGRN or an id
	Skipped int
}

// Splitter turns raw records into companies and vacancies. It is safe for
// concurrent use.
type Splitter struct {
	policy *bluemonday.Policy
}

// NewSplitter creates a splitter that strips every HTML tag from free text
func NewSplitter() *Splitter {
	return &Splitter{policy: bluemonday.StrictPolicy()}
}

// Split keeps records that carry both an OGRN and a vacancy id, cleans their
// text and stamps them with now. Companies are deduplicated by OGRN keeping
// the first occurrence. Vacancy ids are not deduplicated here.
func (s *Splitter) Split(raws []Raw, now time.Time) Batch {
	var b Batch
	seen := make(map[string]bool)

	for _, r := range raws {
		v := r.Vacancy
		ogrn := strings.TrimSpace(v.Company.OGRN.String())
		id := strings.TrimSpace(v.ID.String())
		if ogrn == "" || id == "" {
			b.Skipped++
			continue
		}
		address := joinAddresses(v.Addresses.Address)

		if !seen[ogrn] {
			seen[ogrn] = true
			b.Companies = append(b.Companies, Company{
				OGRN:           ogrn,
				INN:            v.Company.INN.String(),
				KPP:            v.Company.KPP.String(),
				CompanyCode:    v.Company.CompanyCode.String(),
				Name:           v.Company.Name.String(),
				Address:        address,
				HRAgency:       v.Company.HRAgency == "true",
				URL:            v.Company.URL.String(),
				Site:           v.Company.Site.String(),
				Phone:          v.Company.Phone.String(),
				Fax:            v.Company.Fax.String(),
				Email:          v.Company.Email.String(),
				IndustryBranch: v.Company.IndustryBranch.String(),
			})
		}

		b.Vacancies = append(b.Vacancies, Vacancy{
			ID:              id,
			OGRN:            ogrn,
			Source:          v.Source.String(),
			RegionCode:      v.Region.Code.String(),
			RegionName:      v.Region.Name.String(),
			Address:         address,
			Experience:      v.Requirement.Experience.String(),
			Employment:      v.Employment.String(),
			Schedule:        v.Schedule.String(),
			JobName:         v.JobName.String(),
			Specialisation:  v.Category.Specialisation.String(),
			Duty:            s.stripTags(v.Duty.String()),
			Education:       v.Requirement.Education.String(),
			Qualification:   s.stripTags(v.Requirement.Qualification.String()),
			TermText:        v.Term.Text.String(),
			SocialProtected: v.SocialProtected.String(),
			SalaryMin:       v.SalaryMin,
			SalaryMax:       v.SalaryMax,
			Salary:          v.Salary.String(),
			Currency:        v.Currency.String(),
			URL:             v.URL.String(),
			Industry:        v.Category.Industry.String(),
			CreatedAt:       v.CreationDate.String(),
			ModifiedAt:      v.ModifyDate.String(),
			DownloadedAt:    now,
		})
	}
	return b
}

// stripTags removes tags and comments; remaining special characters come
// back HTML-escaped
func (s *Splitter) stripTags(text string) string {
	return strings.TrimSpace(s.policy.Sanitize(text))
}

func joinAddresses(addrs []RawAddress) string {
	locations := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if loc := strings.TrimSpace(a.Location.String()); loc != "" {
			locations = append(locations, loc)
		}
	}
	return strings.Join(locations, "; ")
}

// CompanyKey returns the reconciliation key of a company
func CompanyKey(c Company) string { return c.OGRN }

// VacancyKey returns the reconciliation key of a vacancy
func VacancyKey(v Vacancy) string { return v.ID }

// Resolve records the matched catalog codes on a vacancy. Empty codes leave
// the field nil.
func (v *Vacancy) Resolve(mrigo, okpdtr string) {
	v.MrigoID = optional(mrigo)
	v.OkpdtrID = optional(okpdtr)
}

func optional(code string) *string {
	if code == "" {
		return nil
	}
	return &code
}
