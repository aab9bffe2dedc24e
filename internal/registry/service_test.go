package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemahub/schemahub/internal/model"
	"github.com/schemahub/schemahub/internal/notifications"
)

type fakeRecorder struct {
	inputs []notifications.RecordChangeInput
	err    error
}

func (f *fakeRecorder) RecordChange(_ context.Context, input notifications.RecordChangeInput) (notifications.RecordResult, error) {
	if f.err != nil {
		return notifications.RecordResult{}, f.err
	}
	f.inputs = append(f.inputs, input)
	return notifications.RecordResult{Recorded: true, ChangeID: uuid.New()}, nil
}

// fakeStore is an in-memory hierarchy store.
type fakeStore struct {
	products map[uuid.UUID]model.Product
	domains  map[uuid.UUID]model.Domain
	contexts map[uuid.UUID]model.Context
	schemas  map[uuid.UUID]model.Schema
	versions map[uuid.UUID]model.SchemaVersion

	// versionOrder keeps insertion order so LatestSchemaVersion is stable
	// under a fixed test clock.
	versionOrder []uuid.UUID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products: map[uuid.UUID]model.Product{},
		domains:  map[uuid.UUID]model.Domain{},
		contexts: map[uuid.UUID]model.Context{},
		schemas:  map[uuid.UUID]model.Schema{},
		versions: map[uuid.UUID]model.SchemaVersion{},
	}
}

func (f *fakeStore) CreateProduct(_ context.Context, p model.Product) (model.Product, error) {
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeStore) GetProduct(_ context.Context, id uuid.UUID) (model.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return model.Product{}, model.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) ListProducts(_ context.Context) ([]model.Product, error) {
	out := make([]model.Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeStore) UpdateProduct(_ context.Context, p model.Product) (model.Product, error) {
	if _, ok := f.products[p.ID]; !ok {
		return model.Product{}, model.ErrNotFound
	}
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeStore) DeleteProduct(_ context.Context, id uuid.UUID) error {
	if _, ok := f.products[id]; !ok {
		return model.ErrNotFound
	}
	delete(f.products, id)
	return nil
}

func (f *fakeStore) CreateDomain(_ context.Context, d model.Domain) (model.Domain, error) {
	f.domains[d.ID] = d
	return d, nil
}

func (f *fakeStore) GetDomain(_ context.Context, id uuid.UUID) (model.Domain, error) {
	d, ok := f.domains[id]
	if !ok {
		return model.Domain{}, model.ErrNotFound
	}
	return d, nil
}

func (f *fakeStore) ListDomains(_ context.Context, productID uuid.UUID) ([]model.Domain, error) {
	var out []model.Domain
	for _, d := range f.domains {
		if d.ProductID == productID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateDomain(_ context.Context, d model.Domain) (model.Domain, error) {
	if _, ok := f.domains[d.ID]; !ok {
		return model.Domain{}, model.ErrNotFound
	}
	f.domains[d.ID] = d
	return d, nil
}

func (f *fakeStore) DeleteDomain(_ context.Context, id uuid.UUID) error {
	if _, ok := f.domains[id]; !ok {
		return model.ErrNotFound
	}
	delete(f.domains, id)
	return nil
}

func (f *fakeStore) CreateContext(_ context.Context, c model.Context) (model.Context, error) {
	f.contexts[c.ID] = c
	return c, nil
}

func (f *fakeStore) GetContext(_ context.Context, id uuid.UUID) (model.Context, error) {
	c, ok := f.contexts[id]
	if !ok {
		return model.Context{}, model.ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) ListContexts(_ context.Context, domainID uuid.UUID) ([]model.Context, error) {
	var out []model.Context
	for _, c := range f.contexts {
		if c.DomainID == domainID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateContext(_ context.Context, c model.Context) (model.Context, error) {
	if _, ok := f.contexts[c.ID]; !ok {
		return model.Context{}, model.ErrNotFound
	}
	f.contexts[c.ID] = c
	return c, nil
}

func (f *fakeStore) DeleteContext(_ context.Context, id uuid.UUID) error {
	if _, ok := f.contexts[id]; !ok {
		return model.ErrNotFound
	}
	delete(f.contexts, id)
	return nil
}

func (f *fakeStore) CreateSchema(_ context.Context, sc model.Schema) (model.Schema, error) {
	f.schemas[sc.ID] = sc
	return sc, nil
}

func (f *fakeStore) GetSchema(_ context.Context, id uuid.UUID) (model.Schema, error) {
	sc, ok := f.schemas[id]
	if !ok {
		return model.Schema{}, model.ErrNotFound
	}
	return sc, nil
}

func (f *fakeStore) ListSchemas(_ context.Context, contextID uuid.UUID) ([]model.Schema, error) {
	var out []model.Schema
	for _, sc := range f.schemas {
		if sc.ContextID == contextID {
			out = append(out, sc)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateSchema(_ context.Context, sc model.Schema) (model.Schema, error) {
	if _, ok := f.schemas[sc.ID]; !ok {
		return model.Schema{}, model.ErrNotFound
	}
	f.schemas[sc.ID] = sc
	return sc, nil
}

func (f *fakeStore) DeleteSchema(_ context.Context, id uuid.UUID) error {
	if _, ok := f.schemas[id]; !ok {
		return model.ErrNotFound
	}
	delete(f.schemas, id)
	return nil
}

func (f *fakeStore) CreateSchemaVersion(_ context.Context, v model.SchemaVersion) (model.SchemaVersion, error) {
	f.versions[v.ID] = v
	f.versionOrder = append(f.versionOrder, v.ID)
	return v, nil
}

func (f *fakeStore) GetSchemaVersion(_ context.Context, id uuid.UUID) (model.SchemaVersion, error) {
	v, ok := f.versions[id]
	if !ok {
		return model.SchemaVersion{}, model.ErrNotFound
	}
	return v, nil
}

func (f *fakeStore) ListSchemaVersions(_ context.Context, schemaID uuid.UUID) ([]model.SchemaVersion, error) {
	var out []model.SchemaVersion
	for _, v := range f.versions {
		if v.SchemaID == schemaID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeStore) LatestSchemaVersion(_ context.Context, schemaID uuid.UUID) (model.SchemaVersion, error) {
	for i := len(f.versionOrder) - 1; i >= 0; i-- {
		v, ok := f.versions[f.versionOrder[i]]
		if ok && v.SchemaID == schemaID {
			return v, nil
		}
	}
	return model.SchemaVersion{}, model.ErrNotFound
}

func (f *fakeStore) DeleteSchemaVersion(_ context.Context, id uuid.UUID) error {
	if _, ok := f.versions[id]; !ok {
		return model.ErrNotFound
	}
	delete(f.versions, id)
	return nil
}

func (f *fakeStore) ParentProductOf(_ context.Context, domainID uuid.UUID) (uuid.UUID, error) {
	d, ok := f.domains[domainID]
	if !ok {
		return uuid.Nil, model.ErrNotFound
	}
	return d.ProductID, nil
}

func (f *fakeStore) ParentDomainOf(_ context.Context, contextID uuid.UUID) (uuid.UUID, error) {
	c, ok := f.contexts[contextID]
	if !ok {
		return uuid.Nil, model.ErrNotFound
	}
	return c.DomainID, nil
}

func (f *fakeStore) ParentContextOf(_ context.Context, schemaID uuid.UUID) (uuid.UUID, error) {
	sc, ok := f.schemas[schemaID]
	if !ok {
		return uuid.Nil, model.ErrNotFound
	}
	return sc.ContextID, nil
}

func (f *fakeStore) ParentSchemaOf(_ context.Context, versionID uuid.UUID) (uuid.UUID, error) {
	v, ok := f.versions[versionID]
	if !ok {
		return uuid.Nil, model.ErrNotFound
	}
	return v.SchemaID, nil
}

var fixedClock = func() time.Time {
	return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
}

func newTestRegistry() (*Service, *fakeStore, *fakeRecorder) {
	store := newFakeStore()
	recorder := &fakeRecorder{}
	return NewService(store, recorder, WithClock(fixedClock)), store, recorder
}

func TestProductLifecycleRecordsChanges(t *testing.T) {
	svc, store, recorder := newTestRegistry()
	actor := uuid.New()
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, "billing", "billing platform", &actor)
	require.NoError(t, err)
	assert.Equal(t, "billing", product.Name)
	assert.Contains(t, store.products, product.ID)

	updated, err := svc.UpdateProduct(ctx, product.ID, "billing", "payments and billing", &actor)
	require.NoError(t, err)
	assert.Equal(t, "payments and billing", updated.Description)

	require.NoError(t, svc.DeleteProduct(ctx, product.ID, &actor))
	assert.Empty(t, store.products)

	require.Len(t, recorder.inputs, 3)

	created := recorder.inputs[0]
	assert.Equal(t, model.EntityTypeProduct, created.EntityType)
	assert.Equal(t, model.ChangeTypeCreated, created.ChangeType)
	assert.Nil(t, created.ChangeData.Before)
	assert.Equal(t, "billing", created.ChangeData.After["name"])

	update := recorder.inputs[1]
	assert.Equal(t, model.ChangeTypeUpdated, update.ChangeType)
	assert.Equal(t, "billing platform", update.ChangeData.Before["description"])
	assert.Equal(t, "payments and billing", update.ChangeData.After["description"])

	deleted := recorder.inputs[2]
	assert.Equal(t, model.ChangeTypeDeleted, deleted.ChangeType)
	assert.Nil(t, deleted.ChangeData.After)
	assert.Equal(t, &actor, deleted.ChangedBy)
}

func TestCreateDomainRequiresParent(t *testing.T) {
	svc, _, recorder := newTestRegistry()

	_, err := svc.CreateDomain(context.Background(), uuid.New(), "payments", "", nil)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Empty(t, recorder.inputs)
}

func TestRecorderFailureDoesNotBlockMutation(t *testing.T) {
	store := newFakeStore()
	recorder := &fakeRecorder{err: errors.New("recorder down")}
	svc := NewService(store, recorder, WithClock(fixedClock))

	product, err := svc.CreateProduct(context.Background(), "billing", "", nil)
	require.NoError(t, err)
	assert.Contains(t, store.products, product.ID)
}

func TestCreateSchemaVersionDiffsAgainstLatest(t *testing.T) {
	svc, _, recorder := newTestRegistry()
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, "billing", "", nil)
	require.NoError(t, err)
	domain, err := svc.CreateDomain(ctx, product.ID, "payments", "", nil)
	require.NoError(t, err)
	bctx, err := svc.CreateContext(ctx, domain.ID, "checkout", "", nil)
	require.NoError(t, err)
	schema, err := svc.CreateSchema(ctx, bctx.ID, "order", "", "event", nil)
	require.NoError(t, err)

	v1Fields := []model.FieldDefinition{
		{Name: "order_id", Type: model.FieldTypeString, Required: true},
		{Name: "amount", Type: model.FieldTypeInteger, Required: true},
		{Name: "note", Type: model.FieldTypeString},
	}
	_, err = svc.CreateSchemaVersion(ctx, schema.ID, "1.0.0", v1Fields, nil)
	require.NoError(t, err)

	first := recorder.inputs[len(recorder.inputs)-1]
	assert.Equal(t, model.EntityTypeSchemaVersion, first.EntityType)
	assert.Nil(t, first.ChangeData.Before)
	assert.Empty(t, first.ChangeData.RemovedFields)

	v2Fields := []model.FieldDefinition{
		{Name: "order_id", Type: model.FieldTypeString, Required: true},
		{Name: "amount", Type: model.FieldTypeFloat, Required: true},
		{Name: "currency", Type: model.FieldTypeString, Required: true},
	}
	v2, err := svc.CreateSchemaVersion(ctx, schema.ID, "2.0.0", v2Fields, nil)
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", v2.SemanticVersion)

	second := recorder.inputs[len(recorder.inputs)-1]
	assert.Equal(t, model.ChangeTypeCreated, second.ChangeType)
	assert.Equal(t, "1.0.0", second.ChangeData.Before["semanticVersion"])
	assert.Equal(t, "2.0.0", second.ChangeData.After["semanticVersion"])
	assert.Equal(t, []string{"note"}, second.ChangeData.RemovedFields)
	assert.Equal(t, []string{"currency"}, second.ChangeData.AddedRequiredFields)
	assert.Equal(t, []string{"amount"}, second.ChangeData.ChangedFieldTypes)
	assert.Contains(t, second.ChangeData.Extra, "schemaName")
	assert.Equal(t, "order 2.0.0", second.EntityName)

	// The recorded payload is exactly what the breaking classifier keys on.
	assert.True(t, model.IsBreaking(model.EntityTypeSchemaVersion, second.ChangeData))
}

func TestCreateSchemaVersionRejectsBadFields(t *testing.T) {
	svc, _, recorder := newTestRegistry()
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, "billing", "", nil)
	require.NoError(t, err)
	domain, err := svc.CreateDomain(ctx, product.ID, "payments", "", nil)
	require.NoError(t, err)
	bctx, err := svc.CreateContext(ctx, domain.ID, "checkout", "", nil)
	require.NoError(t, err)
	schema, err := svc.CreateSchema(ctx, bctx.ID, "order", "", "event", nil)
	require.NoError(t, err)
	recorded := len(recorder.inputs)

	_, err = svc.CreateSchemaVersion(ctx, schema.ID, "1.0.0", nil, nil)
	assert.ErrorContains(t, err, "at least one field")

	dup := []model.FieldDefinition{
		{Name: "amount", Type: model.FieldTypeInteger},
		{Name: "Amount", Type: model.FieldTypeFloat},
	}
	_, err = svc.CreateSchemaVersion(ctx, schema.ID, "1.0.0", dup, nil)
	assert.ErrorContains(t, err, "duplicate field name")

	assert.Len(t, recorder.inputs, recorded)
}
