package api

import (
	"html/template"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"

	"intelhub/internal/core"
	"intelhub/internal/logger"
)

type WebHandler struct {
	incidentRepo core.IncidentRepository
	ticketRepo   core.TicketRepository
	datasetRepo  core.DatasetRepository
	userRepo     core.UserRepository
	templates    *template.Template
}

func NewWebHandler(incidentRepo core.IncidentRepository, ticketRepo core.TicketRepository, datasetRepo core.DatasetRepository, userRepo core.UserRepository) *WebHandler {
	funcMap := template.FuncMap{
		"hasPrefix": strings.HasPrefix,
	}
	tmpl, err := template.New("").Funcs(funcMap).ParseGlob("web/templates/*.html")
	if err != nil {
		logger.Error.Printf("CRITICAL: Failed to parse templates: %v", err)
	}

	return &WebHandler{
		incidentRepo: incidentRepo,
		ticketRepo:   ticketRepo,
		datasetRepo:  datasetRepo,
		userRepo:     userRepo,
		templates:    tmpl,
	}
}

// GetTemplates returns the parsed templates (shared with AuthHandler)
func (h *WebHandler) GetTemplates() *template.Template {
	return h.templates
}

func (h *WebHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	incidentCount, _ := h.incidentRepo.Count()
	ticketCount, _ := h.ticketRepo.Count()
	datasetCount, _ := h.datasetRepo.Count()
	openIncidents, _ := h.incidentRepo.CountWhere("status", core.StatusOpen)

	h.render(w, r, "dashboard.html", map[string]interface{}{
		"Title":         "Dashboard",
		"IncidentCount": incidentCount,
		"TicketCount":   ticketCount,
		"DatasetCount":  datasetCount,
		"OpenIncidents": openIncidents,
	})
}

// --- Incidents ---

func (h *WebHandler) IncidentsList(w http.ResponseWriter, r *http.Request) {
	filter := core.IncidentFilter{
		Severity: r.URL.Query().Get("severity"),
		Status:   r.URL.Query().Get("status"),
	}
	incidents, err := h.incidentRepo.GetAll(filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "incidents.html", map[string]interface{}{
		"Title":      "Cybersecurity Incidents",
		"Incidents":  incidents,
		"Severities": core.Severities,
		"Statuses":   core.Statuses,
		"Filter":     filter,
	})
}

func (h *WebHandler) IncidentForm(w http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{
		"Title":      "New Incident",
		"IsEdit":     false,
		"Incident":   core.Incident{Status: core.StatusOpen},
		"Severities": core.Severities,
		"Statuses":   core.Statuses,
	}

	if idStr := r.URL.Query().Get("id"); idStr != "" {
		id, _ := strconv.ParseInt(idStr, 10, 64)
		inc, err := h.incidentRepo.GetByID(id)
		if err == nil {
			data["Title"] = "Edit Incident"
			data["IsEdit"] = true
			data["Incident"] = *inc
		}
	}

	h.render(w, r, "incident_form.html", data)
}

func (h *WebHandler) SaveIncident(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	title := r.FormValue("title")
	severity := r.FormValue("severity")
	status := r.FormValue("status")
	date := r.FormValue("date")

	var err error
	if idStr := r.FormValue("id"); idStr != "" {
		id, _ := strconv.ParseInt(idStr, 10, 64)
		_, err = h.incidentRepo.Update(id, core.IncidentUpdate{
			Title:    &title,
			Severity: &severity,
			Status:   &status,
			Date:     &date,
		})
	} else {
		_, err = h.incidentRepo.Create(&core.Incident{
			Title:    title,
			Severity: severity,
			Status:   status,
			Date:     date,
		})
	}

	if err != nil {
		if core.IsValidationError(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to save incident: "+err.Error(), http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/incidents", http.StatusFound)
}

func (h *WebHandler) DeleteIncident(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if _, err := h.incidentRepo.Delete(id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/incidents", http.StatusFound)
}

// --- Tickets ---

func (h *WebHandler) TicketsList(w http.ResponseWriter, r *http.Request) {
	filter := core.TicketFilter{
		Priority: r.URL.Query().Get("priority"),
		Status:   r.URL.Query().Get("status"),
	}
	tickets, err := h.ticketRepo.GetAll(filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "tickets.html", map[string]interface{}{
		"Title":      "IT Operations Tickets",
		"Tickets":    tickets,
		"Priorities": core.Priorities,
		"Statuses":   core.Statuses,
		"Filter":     filter,
	})
}

func (h *WebHandler) TicketForm(w http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{
		"Title":      "New Ticket",
		"IsEdit":     false,
		"Ticket":     core.Ticket{Status: core.StatusOpen},
		"Priorities": core.Priorities,
		"Statuses":   core.Statuses,
	}

	if idStr := r.URL.Query().Get("id"); idStr != "" {
		id, _ := strconv.ParseInt(idStr, 10, 64)
		t, err := h.ticketRepo.GetByID(id)
		if err == nil {
			data["Title"] = "Edit Ticket"
			data["IsEdit"] = true
			data["Ticket"] = *t
		}
	}

	h.render(w, r, "ticket_form.html", data)
}

func (h *WebHandler) SaveTicket(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	title := r.FormValue("title")
	priority := r.FormValue("priority")
	status := r.FormValue("status")
	createdDate := r.FormValue("created_date")

	var err error
	if idStr := r.FormValue("id"); idStr != "" {
		id, _ := strconv.ParseInt(idStr, 10, 64)
		_, err = h.ticketRepo.Update(id, core.TicketUpdate{
			Title:       &title,
			Priority:    &priority,
			Status:      &status,
			CreatedDate: &createdDate,
		})
	} else {
		_, err = h.ticketRepo.Create(&core.Ticket{
			Title:       title,
			Priority:    priority,
			Status:      status,
			CreatedDate: createdDate,
		})
	}

	if err != nil {
		if core.IsValidationError(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to save ticket: "+err.Error(), http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/tickets", http.StatusFound)
}

func (h *WebHandler) DeleteTicket(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if _, err := h.ticketRepo.Delete(id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/tickets", http.StatusFound)
}

// --- Datasets ---

func (h *WebHandler) DatasetsList(w http.ResponseWriter, r *http.Request) {
	filter := core.DatasetFilter{
		Category: r.URL.Query().Get("category"),
	}
	datasets, err := h.datasetRepo.GetAll(filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	categories, _ := h.datasetRepo.CountByColumn("category")
	h.render(w, r, "datasets.html", map[string]interface{}{
		"Title":      "Data Science Datasets",
		"Datasets":   datasets,
		"Categories": categories,
		"Filter":     filter,
	})
}

func (h *WebHandler) DatasetForm(w http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{
		"Title":   "New Dataset",
		"IsEdit":  false,
		"Dataset": core.Dataset{},
	}

	if idStr := r.URL.Query().Get("id"); idStr != "" {
		id, _ := strconv.ParseInt(idStr, 10, 64)
		d, err := h.datasetRepo.GetByID(id)
		if err == nil {
			data["Title"] = "Edit Dataset"
			data["IsEdit"] = true
			data["Dataset"] = *d
		}
	}

	h.render(w, r, "dataset_form.html", data)
}

func (h *WebHandler) SaveDataset(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	name := r.FormValue("name")
	source := r.FormValue("source")
	category := r.FormValue("category")
	size, sizeErr := strconv.ParseInt(r.FormValue("size"), 10, 64)
	if sizeErr != nil {
		http.Error(w, "invalid size: not an integer", http.StatusBadRequest)
		return
	}

	var err error
	if idStr := r.FormValue("id"); idStr != "" {
		id, _ := strconv.ParseInt(idStr, 10, 64)
		_, err = h.datasetRepo.Update(id, core.DatasetUpdate{
			Name:     &name,
			Source:   &source,
			Category: &category,
			Size:     &size,
		})
	} else {
		_, err = h.datasetRepo.Create(&core.Dataset{
			Name:     name,
			Source:   source,
			Category: category,
			Size:     size,
		})
	}

	if err != nil {
		if core.IsValidationError(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to save dataset: "+err.Error(), http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/datasets", http.StatusFound)
}

func (h *WebHandler) DeleteDataset(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if _, err := h.datasetRepo.Delete(id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/datasets", http.StatusFound)
}

// --- Users (admin only) ---

func (h *WebHandler) UsersList(w http.ResponseWriter, r *http.Request) {
	users, err := h.userRepo.GetAll()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "users.html", map[string]interface{}{
		"Title": "Users",
		"Users": users,
	})
}

func (h *WebHandler) render(w http.ResponseWriter, r *http.Request, tmplName string, data interface{}) {
	if h.templates == nil {
		http.Error(w, "Templates not loaded", http.StatusInternalServerError)
		return
	}

	// layout.html dispatches to the page template named in "Page"
	err := h.templates.ExecuteTemplate(w, "layout.html", map[string]interface{}{
		"Page":      tmplName,
		"Data":      data,
		"Session":   SessionFrom(r),
		"CSRFField": csrf.TemplateField(r),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// RegisterRoutes wires the session-gated pages.
func (h *WebHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
	})

	r.Get("/dashboard", h.Dashboard)

	// Incidents
	r.Get("/incidents", h.IncidentsList)
	r.Get("/incidents/new", h.IncidentForm)
	r.Get("/incidents/edit", h.IncidentForm)
	r.Post("/incidents/save", h.SaveIncident)
	r.Get("/incidents/delete", h.DeleteIncident)

	// Tickets
	r.Get("/tickets", h.TicketsList)
	r.Get("/tickets/new", h.TicketForm)
	r.Get("/tickets/edit", h.TicketForm)
	r.Post("/tickets/save", h.SaveTicket)
	r.Get("/tickets/delete", h.DeleteTicket)

	// Datasets
	r.Get("/datasets", h.DatasetsList)
	r.Get("/datasets/new", h.DatasetForm)
	r.Get("/datasets/edit", h.DatasetForm)
	r.Post("/datasets/save", h.SaveDataset)
	r.Get("/datasets/delete", h.DeleteDataset)
}

func (h *WebHandler) RegisterStatic(r chi.Router) {
	workDir := "."
	filesDir := http.Dir(filepath.Join(workDir, "web/static"))
	FileServer(r, "/static", filesDir)
}

// Simple file server helper for Chi
func FileServer(r chi.Router, path string, root http.FileSystem) {
	if strings.ContainsAny(path, "{}*") {
		panic("FileServer does not permit any URL parameters.")
	}

	if path != "/" && path[len(path)-1] != '/' {
		r.Get(path, http.RedirectHandler(path+"/", 301).ServeHTTP)
		path += "/"
	}
	path += "*"

	r.Get(path, func(w http.ResponseWriter, r *http.Request) {
		rctx := chi.RouteContext(r.Context())
		pathPrefix := strings.TrimSuffix(rctx.RoutePattern(), "/*")
		fs := http.StripPrefix(pathPrefix, http.FileServer(root))
		fs.ServeHTTP(w, r)
	})
}
