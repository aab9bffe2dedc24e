package api

import (
	"net/http"

	"github.com/schemahub/schemahub/internal/model"
	"github.com/schemahub/schemahub/internal/registry"
	"github.com/schemahub/schemahub/internal/schema/validator"
)

// RegistryHandler serves the hierarchy CRUD endpoints.
type RegistryHandler struct {
	registry *registry.Service
}

func NewRegistryHandler(service *registry.Service) *RegistryHandler {
	return &RegistryHandler{registry: service}
}

// Register attaches the hierarchy routes to the mux.
func (h *RegistryHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/products", h.createProduct)
	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/products/{id}", h.getProduct)
	mux.HandleFunc("PUT /api/products/{id}", h.updateProduct)
	mux.HandleFunc("DELETE /api/products/{id}", h.deleteProduct)
	mux.HandleFunc("GET /api/products/{id}/domains", h.listDomains)

	mux.HandleFunc("POST /api/domains", h.createDomain)
	mux.HandleFunc("GET /api/domains/{id}", h.getDomain)
	mux.HandleFunc("PUT /api/domains/{id}", h.updateDomain)
	mux.HandleFunc("DELETE /api/domains/{id}", h.deleteDomain)
	mux.HandleFunc("GET /api/domains/{id}/contexts", h.listContexts)

	mux.HandleFunc("POST /api/contexts", h.createContext)
	mux.HandleFunc("GET /api/contexts/{id}", h.getContext)
	mux.HandleFunc("PUT /api/contexts/{id}", h.updateContext)
	mux.HandleFunc("DELETE /api/contexts/{id}", h.deleteContext)
	mux.HandleFunc("GET /api/contexts/{id}/schemas", h.listSchemas)

	mux.HandleFunc("POST /api/schemas", h.createSchema)
	mux.HandleFunc("GET /api/schemas/{id}", h.getSchema)
	mux.HandleFunc("PUT /api/schemas/{id}", h.updateSchema)
	mux.HandleFunc("DELETE /api/schemas/{id}", h.deleteSchema)
	mux.HandleFunc("POST /api/schemas/{id}/versions", h.createSchemaVersion)
	mux.HandleFunc("GET /api/schemas/{id}/versions", h.listSchemaVersions)
	mux.HandleFunc("GET /api/schemas/{id}/versions/latest", h.latestSchemaVersion)

	mux.HandleFunc("GET /api/schema-versions/{id}", h.getSchemaVersion)
	mux.HandleFunc("DELETE /api/schema-versions/{id}", h.deleteSchemaVersion)
}

type namedPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *RegistryHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var payload namedPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	if payload.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	product, err := h.registry.CreateProduct(r.Context(), payload.Name, payload.Description, actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

func (h *RegistryHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.registry.ListProducts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *RegistryHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	product, err := h.registry.GetProduct(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *RegistryHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var payload namedPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	product, err := h.registry.UpdateProduct(r.Context(), id, payload.Name, payload.Description, actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *RegistryHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.registry.DeleteProduct(r.Context(), id, actorFrom(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createDomainPayload struct {
	ProductID   string `json:"productId"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *RegistryHandler) createDomain(w http.ResponseWriter, r *http.Request) {
	var payload createDomainPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	productID, err := parseID(payload.ProductID, "productId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if payload.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	domain, err := h.registry.CreateDomain(r.Context(), productID, payload.Name, payload.Description, actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, domain)
}

func (h *RegistryHandler) listDomains(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	domains, err := h.registry.ListDomains(r.Context(), productID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domains)
}

func (h *RegistryHandler) getDomain(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	domain, err := h.registry.GetDomain(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain)
}

func (h *RegistryHandler) updateDomain(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var payload namedPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	domain, err := h.registry.UpdateDomain(r.Context(), id, payload.Name, payload.Description, actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain)
}

func (h *RegistryHandler) deleteDomain(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.registry.DeleteDomain(r.Context(), id, actorFrom(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createContextPayload struct {
	DomainID    string `json:"domainId"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *RegistryHandler) createContext(w http.ResponseWriter, r *http.Request) {
	var payload createContextPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	domainID, err := parseID(payload.DomainID, "domainId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if payload.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	bctx, err := h.registry.CreateContext(r.Context(), domainID, payload.Name, payload.Description, actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bctx)
}

func (h *RegistryHandler) listContexts(w http.ResponseWriter, r *http.Request) {
	domainID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	contexts, err := h.registry.ListContexts(r.Context(), domainID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contexts)
}

func (h *RegistryHandler) getContext(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	bctx, err := h.registry.GetContext(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bctx)
}

func (h *RegistryHandler) updateContext(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var payload namedPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	bctx, err := h.registry.UpdateContext(r.Context(), id, payload.Name, payload.Description, actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bctx)
}

func (h *RegistryHandler) deleteContext(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.registry.DeleteContext(r.Context(), id, actorFrom(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createSchemaPayload struct {
	ContextID   string `json:"contextId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	SchemaType  string `json:"schemaType"`
}

type updateSchemaPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	SchemaType  string `json:"schemaType"`
}

func (h *RegistryHandler) createSchema(w http.ResponseWriter, r *http.Request) {
	var payload createSchemaPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	contextID, err := parseID(payload.ContextID, "contextId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if payload.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	schema, err := h.registry.CreateSchema(r.Context(), contextID, payload.Name, payload.Description, payload.SchemaType, actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, schema)
}

func (h *RegistryHandler) listSchemas(w http.ResponseWriter, r *http.Request) {
	contextID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	schemas, err := h.registry.ListSchemas(r.Context(), contextID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schemas)
}

func (h *RegistryHandler) getSchema(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	schema, err := h.registry.GetSchema(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schema)
}

func (h *RegistryHandler) updateSchema(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var payload updateSchemaPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	schema, err := h.registry.UpdateSchema(r.Context(), id, payload.Name, payload.Description, payload.SchemaType, actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schema)
}

func (h *RegistryHandler) deleteSchema(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.registry.DeleteSchema(r.Context(), id, actorFrom(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createVersionPayload struct {
	SemanticVersion string                  `json:"semanticVersion"`
	Fields          []model.FieldDefinition `json:"fields"`
}

func (h *RegistryHandler) createSchemaVersion(w http.ResponseWriter, r *http.Request) {
	schemaID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var payload createVersionPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	if payload.SemanticVersion == "" {
		http.Error(w, "semanticVersion is required", http.StatusBadRequest)
		return
	}
	if err := validator.ValidateFields(payload.Fields); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	version, err := h.registry.CreateSchemaVersion(r.Context(), schemaID, payload.SemanticVersion, payload.Fields, actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, version)
}

func (h *RegistryHandler) listSchemaVersions(w http.ResponseWriter, r *http.Request) {
	schemaID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	versions, err := h.registry.ListSchemaVersions(r.Context(), schemaID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, versions)
}

func (h *RegistryHandler) latestSchemaVersion(w http.ResponseWriter, r *http.Request) {
	schemaID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	version, err := h.registry.LatestSchemaVersion(r.Context(), schemaID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, version)
}

func (h *RegistryHandler) getSchemaVersion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	version, err := h.registry.GetSchemaVersion(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, version)
}

func (h *RegistryHandler) deleteSchemaVersion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.registry.DeleteSchemaVersion(r.Context(), id, actorFrom(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
