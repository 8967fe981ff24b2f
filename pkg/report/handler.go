package report

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
)

type CategoryTotalDTO struct {
	Category string `json:"category"`
	Minutes  int    `json:"minutes"`
}

type DayCountDTO struct {
	Date   string `json:"date"`
	Events int    `json:"events"`
}

type DayTrendDTO struct {
	Date       string             `json:"date"`
	Categories []CategoryTotalDTO `json:"categories"`
}

type ReportDTO struct {
	Categories  []CategoryTotalDTO `json:"categories"`
	BusiestDays []DayCountDTO      `json:"busiestDays"`
	Trends      []DayTrendDTO      `json:"trends"`
	Content     string             `json:"content"`
	Path        string             `json:"path"`
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var (
		result Result
		err    error
	)
	if format := r.URL.Query().Get("format"); format != "" {
		renderer, rErr := RendererFor(format)
		if rErr != nil {
			http.Error(w, rErr.Error(), http.StatusBadRequest)
			return
		}
		result, err = h.service.GenerateReportWith(r.Context(), renderer)
	} else {
		result, err = h.service.GenerateReport(r.Context())
	}
	if err != nil {
		log.Errorf("failed to generate report: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(ResultToDTO(result)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func ResultToDTO(result Result) ReportDTO {
	dto := ReportDTO{
		Categories:  totalsToDTO(result.Report.Categories),
		BusiestDays: make([]DayCountDTO, 0, len(result.Report.BusiestDays)),
		Trends:      make([]DayTrendDTO, 0, len(result.Report.Trends)),
		Content:     result.Content,
		Path:        result.Path,
	}
	for _, d := range result.Report.BusiestDays {
		dto.BusiestDays = append(dto.BusiestDays, DayCountDTO{Date: d.Date.Format(DateLayout), Events: d.Events})
	}
	for _, t := range result.Report.Trends {
		dto.Trends = append(dto.Trends, DayTrendDTO{Date: t.Date.Format(DateLayout), Categories: totalsToDTO(t.Categories)})
	}
	return dto
}

func totalsToDTO(totals []CategoryTotal) []CategoryTotalDTO {
	dtos := make([]CategoryTotalDTO, 0, len(totals))
	for _, c := range totals {
		dtos = append(dtos, CategoryTotalDTO{Category: c.Category, Minutes: c.Minutes})
	}
	return dtos
}
