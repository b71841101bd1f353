package services

import (
	"database/sql"
	"strings"
	"text/template"
	"time"

	"logbloga/internal/domain"
	"logbloga/internal/repos"
)

type PiracyService struct {
	Repo  *repos.PiracyRepo
	Prods *repos.ProductRepo
}

func NewPiracyService(repo *repos.PiracyRepo, prods *repos.ProductRepo) *PiracyService {
	return &PiracyService{Repo: repo, Prods: prods}
}

var validReportStatus = map[string]bool{
	domain.ReportNew:          true,
	domain.ReportReviewing:    true,
	domain.ReportTakedownSent: true,
	domain.ReportResolved:     true,
	domain.ReportDismissed:    true,
}

func (s *PiracyService) Report(productID, url, reportedBy, notes string) (string, error) {
	if _, err := s.Prods.Get(productID); err != nil {
		if err == sql.ErrNoRows {
			return "", ErrValidation{Msg: "Product not found"}
		}
		return "", err
	}
	return s.Repo.Insert(productID, url, reportedBy, notes)
}

func (s *PiracyService) List(status string) ([]domain.PiracyReport, error) {
	if status != "" && !validReportStatus[status] {
		return nil, ErrValidation{Msg: "Unknown report status"}
	}
	return s.Repo.List(status, 100)
}

func (s *PiracyService) SetStatus(id, status string) error {
	if !validReportStatus[status] {
		return ErrValidation{Msg: "Unknown report status"}
	}
	if _, err := s.Repo.Get(id); err != nil {
		return err
	}
	return s.Repo.UpdateStatus(id, status)
}

// Takedown submission is not automated; the notice text is generated for an
// operator to review and send manually.
var dmcaTemplate = template.Must(template.New("dmca").Parse(strings.TrimSpace(`
To whom it may concern,

I am writing on behalf of LogBloga, the copyright owner of the work
"{{.ProductTitle}}".

The following URL hosts an unauthorized copy of this work:

    {{.URL}}

I have a good faith belief that the use described above is not authorized by
the copyright owner, its agent, or the law. The information in this notice is
accurate, and under penalty of perjury, I am authorized to act on behalf of
the copyright owner.

Please remove or disable access to the infringing material.

Date: {{.Date}}
Reference: {{.ReportID}}

LogBloga Copyright Agent
`)))

type dmcaData struct {
	ProductTitle string
	URL          string
	Date         string
	ReportID     string
}

// DMCANotice renders the takedown notice for a report and marks it reviewing
// if it was still new.
func (s *PiracyService) DMCANotice(reportID string) (string, error) {
	r, err := s.Repo.Get(reportID)
	if err != nil {
		return "", err
	}
	p, err := s.Prods.Get(r.ProductID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	err = dmcaTemplate.Execute(&b, dmcaData{
		ProductTitle: p.Title,
		URL:          r.URL,
		Date:         time.Now().UTC().Format("2006-01-02"),
		ReportID:     r.ID,
	})
	if err != nil {
		return "", err
	}

	if r.Status == domain.ReportNew {
		_ = s.Repo.UpdateStatus(r.ID, domain.ReportReviewing)
	}
	return b.String(), nil
}
