package postgres

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/go-openapi/inflect"
	"github.com/lib/pq/oid"

	"github.com/syssam/postgraph"
	"github.com/syssam/postgraph/dialect/sql"
	"github.com/syssam/postgraph/inventory"
	"github.com/syssam/postgraph/types"
)

type options struct {
	namespaces  []string
	procedures  bool
	transformer *Transformer
	logger      *slog.Logger
}

// Option configures NewInventory.
type Option func(*options)

// WithNamespaces restricts the inventory to classes and procedures of the
// given namespaces.
func WithNamespaces(names ...string) Option {
	return func(o *options) {
		o.namespaces = append(o.namespaces, names...)
	}
}

// WithProcedures adds the catalog procedures to the inventory.
func WithProcedures() Option {
	return func(o *options) {
		o.procedures = true
	}
}

// WithTransformer sets the transformer values are encoded with, e.g. to
// register extra literal parsers. Types are registered on it.
func WithTransformer(t *Transformer) Option {
	return func(o *options) {
		o.transformer = t
	}
}

// WithLogger sets the logger used while building the inventory.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

var rules = inflect.NewDefaultRuleset()

// typeName is the singular name of the values of a class.
func typeName(cls *Class) string {
	if cls.Kind == KindComposite {
		return cls.Name
	}
	return rules.Singularize(cls.Name)
}

// NewInventory builds an inventory with one collection per selectable
// table and view of the catalog.
func NewInventory(cat *Catalog, opts ...Option) (*inventory.Inventory, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.transformer == nil {
		o.transformer = NewTransformer()
	}
	b := &builder{
		cat:    cat,
		opts:   o,
		tr:     o.transformer,
		mapper: newTypeMapper(cat, o.transformer),
		inv:    inventory.New(),
	}
	if err := b.collections(); err != nil {
		return nil, err
	}
	if o.procedures {
		if err := b.procedures(); err != nil {
			return nil, err
		}
	}
	o.logger.Debug("postgres inventory built",
		"collections", len(b.inv.Collections()),
		"procedures", len(b.inv.Procedures()),
	)
	return b.inv, nil
}

type builder struct {
	cat    *Catalog
	opts   options
	tr     *Transformer
	mapper *typeMapper
	inv    *inventory.Inventory
}

func (b *builder) included(namespace string) bool {
	return len(b.opts.namespaces) == 0 || slices.Contains(b.opts.namespaces, namespace)
}

func (b *builder) collections() error {
	var classes []*Class
	for _, cls := range b.cat.Classes {
		if cls.Kind == KindComposite || !b.included(cls.Namespace) {
			continue
		}
		// Row types are created first so that columns and procedures
		// referencing them resolve to the collection type.
		if _, err := b.mapper.classObject(cls, typeName(cls)); err != nil {
			return err
		}
		classes = append(classes, cls)
	}
	for _, cls := range classes {
		if err := b.collection(cls); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) collection(cls *Class) error {
	obj, err := b.mapper.classObject(cls, typeName(cls))
	if err != nil {
		return err
	}
	b.tr.RegisterComposite(obj, cls.Namespace, cls.Name)
	t := &table{
		entity: cls.Name,
		ident:  sql.Ident(cls.Namespace, cls.Name),
		obj:    obj,
		tr:     b.tr,
	}
	c := &inventory.Collection{
		Name:        rules.Pluralize(typeName(cls)),
		Description: cls.Description,
		Type:        obj,
	}
	var pk []string
	for _, con := range b.cat.Constraints {
		if con.Namespace != cls.Namespace || con.Class != cls.Name {
			continue
		}
		if con.Kind != ConstraintPrimaryKey && con.Kind != ConstraintUnique {
			continue
		}
		key, fields, err := b.key(cls, obj, t, con)
		if err != nil {
			return err
		}
		c.Keys = append(c.Keys, key)
		if con.Kind == ConstraintPrimaryKey {
			c.PrimaryKey = key
			pk = fields
		}
	}
	if cls.IsSelectable {
		c.Paginator = b.paginator(cls, obj, pk)
	}
	if cls.IsInsertable {
		c.Create = t.create
	}
	return b.inv.AddCollection(c)
}

// key builds a collection key over the constraint attributes.
func (b *builder) key(cls *Class, obj *types.Object, t *table, con *Constraint) (*inventory.CollectionKey, []string, error) {
	fields := make([]string, 0, len(con.KeyAttrNums))
	for _, num := range con.KeyAttrNums {
		a := cls.Attribute(num)
		if a == nil {
			return nil, nil, postgraph.NewSchemaError(cls.Name, "constraint "+con.Name+" references an unknown attribute")
		}
		fields = append(fields, a.Name)
	}
	name := strings.Join(fields, "-and-")
	keyType := types.NewObject(typeName(cls)+"-"+name+"-key", "")
	for _, f := range fields {
		keyType.MustAddField(&types.ObjectField{Name: f, Type: types.NonNullOf(obj.Field(f).Type)})
	}
	key := &inventory.CollectionKey{Name: name, Type: keyType}
	if cls.IsSelectable {
		key.Read = func(ctx context.Context, k any) (any, error) {
			return t.read(ctx, fields, k)
		}
	}
	if cls.IsUpdatable {
		key.Update = func(ctx context.Context, k any, patch types.ObjectValue) (any, error) {
			return t.update(ctx, fields, k, patch)
		}
	}
	if cls.IsDeletable {
		key.Delete = func(ctx context.Context, k any) (any, error) {
			return t.delete(ctx, fields, k)
		}
	}
	return key, fields, nil
}

func (b *builder) paginator(cls *Class, obj *types.Object, pk []string) *paginator {
	natural := &ordering{name: "natural", description: "No ordering; rows are read in storage order."}
	p := &paginator{
		name:      rules.Pluralize(typeName(cls)),
		entity:    cls.Name,
		from:      sql.Ident(cls.Namespace, cls.Name),
		typ:       obj,
		tr:        b.tr,
		orderings: []inventory.Ordering{natural},
		fallback:  natural,
	}
	if len(pk) > 0 {
		asc := &ordering{name: "primary-key-asc", description: "Ascending by primary key.", columns: pk, keyset: true}
		desc := &ordering{name: "primary-key-desc", description: "Descending by primary key.", columns: pk, descending: true, keyset: true}
		p.orderings = append(p.orderings, asc, desc)
		p.fallback = asc
	}
	for _, a := range cls.Attributes {
		cols := []string{a.Name}
		for _, k := range pk {
			if k != a.Name {
				cols = append(cols, k)
			}
		}
		// Row comparisons against a NULL bound select nothing, so nullable
		// columns page by offset.
		keyset := len(pk) > 0 && a.NotNull
		p.orderings = append(p.orderings,
			&ordering{name: a.Name + "-asc", description: "Ascending by " + a.Name + ".", columns: cols, keyset: keyset},
			&ordering{name: a.Name + "-desc", description: "Descending by " + a.Name + ".", columns: cols, descending: true, keyset: keyset},
		)
	}
	return p
}

func (b *builder) procedures() error {
	for _, proc := range b.cat.Procedures {
		if !b.included(proc.Namespace) {
			continue
		}
		switch proc.ReturnTypeID {
		case oid.T_void, oid.T_record, oid.T_trigger:
			b.opts.logger.Debug("postgres procedure skipped", "procedure", proc.Name, "return_type", proc.ReturnTypeID)
			continue
		}
		if err := b.procedure(proc); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) procedure(proc *Proc) error {
	ret, err := b.mapper.typ(proc.ReturnTypeID)
	if err != nil {
		return err
	}
	args := make([]inventory.ProcedureArg, len(proc.ArgTypeIDs))
	for i, id := range proc.ArgTypeIDs {
		t, err := b.mapper.typ(id)
		if err != nil {
			return err
		}
		name := ""
		if i < len(proc.ArgNames) {
			name = proc.ArgNames[i]
		}
		if name == "" {
			name = "arg" + strconv.Itoa(i+1)
		}
		args[i] = inventory.ProcedureArg{Name: name, Type: types.NewNullable(t)}
	}
	fn := &function{
		entity: proc.Name,
		ident:  sql.Ident(proc.Namespace, proc.Name),
		args:   args,
		typ:    types.NewNullable(ret),
		tr:     b.tr,
	}
	p := &inventory.Procedure{
		Name:        proc.Name,
		Description: proc.Description,
		Args:        args,
		ReturnType:  types.NewNullable(ret),
		ReturnsSet:  proc.ReturnsSet,
		Strict:      proc.IsStrict,
		Stable:      proc.IsStable,
		Call:        fn.single,
	}
	if proc.ReturnsSet {
		p.Call = fn.set
		if proc.IsStable {
			p.Paginator = newFunctionPaginator(fn)
		}
	}
	return b.inv.AddProcedure(p)
}
