package migration

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	proto "github.com/gogo/protobuf/proto"

	tokenvault "github.com/iov-one/tokenvault"
	"github.com/iov-one/tokenvault/errors"
	"github.com/iov-one/tokenvault/orm"
)

// Slotted is implemented by models that declare how many storage positions
// are reserved for them. The capacity must never change between schema
// versions.
type Slotted interface {
	ReservedSlots() uint32
}

// Layout describes the storage layout of a model at a given schema
// version. Storage positions are protobuf field numbers.
type Layout struct {
	Metadata *tokenvault.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Model    string               `protobuf:"bytes,2,opt,name=model,proto3" json:"model,omitempty"`
	Version  uint32               `protobuf:"varint,3,opt,name=version,proto3" json:"version,omitempty"`
	Capacity uint32               `protobuf:"varint,4,opt,name=capacity,proto3" json:"capacity,omitempty"`
	Fields   []*LayoutField       `protobuf:"bytes,5,rep,name=fields,proto3" json:"fields,omitempty"`
}

func (m *Layout) Reset()         { *m = Layout{} }
func (m *Layout) String() string { return proto.CompactTextString(m) }
func (*Layout) ProtoMessage()    {}

// LayoutField is a single storage position of a model.
type LayoutField struct {
	Number uint32 `protobuf:"varint,1,opt,name=number,proto3" json:"number,omitempty"`
	Name   string `protobuf:"bytes,2,opt,name=name,proto3" json:"name,omitempty"`
	Kind   string `protobuf:"bytes,3,opt,name=kind,proto3" json:"kind,omitempty"`
	Since  uint32 `protobuf:"varint,4,opt,name=since,proto3" json:"since,omitempty"`
}

func (m *LayoutField) Reset()         { *m = LayoutField{} }
func (m *LayoutField) String() string { return proto.CompactTextString(m) }
func (*LayoutField) ProtoMessage()    {}

func (f *LayoutField) equal(o *LayoutField) bool {
	return f.Number == o.Number && f.Name == o.Name && f.Kind == o.Kind
}

func (l *Layout) GetMetadata() *tokenvault.Metadata {
	return l.Metadata
}

// Validate returns an error if positions are not unique or exceed the
// reserved capacity.
func (l *Layout) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", l.Metadata.Validate())
	if l.Model == "" {
		errs = errors.AppendField(errs, "Model", errors.ErrEmpty)
	}
	if l.Version < 1 {
		errs = errors.AppendField(errs, "Version", errors.Wrap(errors.ErrModel, "version must be greater than zero"))
	}
	seen := make(map[uint32]bool, len(l.Fields))
	for i, f := range l.Fields {
		switch {
		case f.Number < 1:
			errs = errors.AppendField(errs, fmt.Sprintf("Fields.%d", i), errors.Wrap(errors.ErrModel, "position must be greater than zero"))
		case seen[f.Number]:
			errs = errors.AppendField(errs, fmt.Sprintf("Fields.%d", i), errors.Wrapf(errors.ErrDuplicate, "position %d", f.Number))
		case l.Capacity != 0 && f.Number > l.Capacity:
			errs = errors.AppendField(errs, fmt.Sprintf("Fields.%d", i), errors.Wrapf(errors.ErrSchema, "position %d exceeds reserved capacity %d", f.Number, l.Capacity))
		}
		seen[f.Number] = true
	}
	return errs
}

// LayoutOf computes the storage layout of given model at given schema
// version. Only fields introduced at or before the version are part of the
// layout. A field declares the version it was introduced in using the
// `schema:"N"` struct tag, fields without it exist since version one.
// Fields are listed in declaration order.
func LayoutOf(model interface{}, version uint32) (*Layout, error) {
	tp := reflect.TypeOf(model)
	for tp.Kind() == reflect.Ptr {
		tp = tp.Elem()
	}
	if tp.Kind() != reflect.Struct {
		return nil, errors.Wrapf(errors.ErrInput, "only struct has a layout, got %T", model)
	}

	l := &Layout{
		Metadata: &tokenvault.Metadata{Schema: 1},
		Model:    tp.String(),
		Version:  version,
	}
	if s, ok := model.(Slotted); ok {
		l.Capacity = s.ReservedSlots()
	}

	for i := 0; i < tp.NumField(); i++ {
		sf := tp.Field(i)
		tag, ok := sf.Tag.Lookup("protobuf")
		if !ok || strings.HasPrefix(sf.Name, "XXX_") {
			continue
		}
		f, err := parseField(sf, tag)
		if err != nil {
			return nil, errors.Wrapf(err, "field %s", sf.Name)
		}
		if f.Since > version {
			continue
		}
		l.Fields = append(l.Fields, f)
	}
	return l, nil
}

func parseField(sf reflect.StructField, tag string) (*LayoutField, error) {
	parts := strings.Split(tag, ",")
	if len(parts) < 3 {
		return nil, errors.Wrapf(errors.ErrModel, "malformed protobuf tag %q", tag)
	}
	num, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrModel, "malformed field number %q", parts[1])
	}
	f := &LayoutField{
		Number: uint32(num),
		Name:   sf.Name,
		Kind:   parts[0] + ":" + sf.Type.String(),
		Since:  1,
	}
	for _, p := range parts[2:] {
		if strings.HasPrefix(p, "name=") {
			f.Name = strings.TrimPrefix(p, "name=")
		}
		if p == "rep" {
			f.Kind = "rep:" + f.Kind
		}
	}
	if raw, ok := sf.Tag.Lookup("schema"); ok {
		since, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || since < 1 {
			return nil, errors.Wrapf(errors.ErrModel, "malformed schema tag %q", raw)
		}
		f.Since = uint32(since)
	}
	return f, nil
}

// CheckLayout returns an error if the next layout is not a safe extension
// of the previous one. All previously declared fields must keep their
// position, name, kind and order. New fields can only be appended after
// the last used position and the reserved capacity must stay the same.
func CheckLayout(prev, next *Layout) error {
	if prev.Model != next.Model {
		return errors.Wrapf(errors.ErrSchema, "model mismatch: %q and %q", prev.Model, next.Model)
	}
	if next.Version <= prev.Version {
		return errors.Wrapf(errors.ErrSchema, "version %d does not follow %d", next.Version, prev.Version)
	}
	if err := next.Validate(); err != nil {
		return errors.Wrap(errors.Append(errors.ErrSchema, err), "invalid layout")
	}

	var errs error
	if prev.Capacity != next.Capacity {
		errs = errors.Append(errs, errors.Wrapf(errors.ErrSchema, "reserved capacity changed from %d to %d", prev.Capacity, next.Capacity))
	}
	if len(next.Fields) < len(prev.Fields) {
		return errors.Append(errs, errors.Wrapf(errors.ErrSchema, "%d fields removed", len(prev.Fields)-len(next.Fields)))
	}

	var last uint32
	for i, pf := range prev.Fields {
		nf := next.Fields[i]
		if !pf.equal(nf) {
			errs = errors.Append(errs, errors.Wrapf(errors.ErrSchema,
				"position %d: %s %s changed to %d: %s %s", i, pf.Name, pf.Kind, nf.Number, nf.Name, nf.Kind))
		}
		if pf.Number > last {
			last = pf.Number
		}
	}
	for _, nf := range next.Fields[len(prev.Fields):] {
		if nf.Number <= last {
			errs = errors.Append(errs, errors.Wrapf(errors.ErrSchema,
				"new field %s at position %d is not appended after %d", nf.Name, nf.Number, last))
		}
		last = nf.Number
	}
	return errs
}

// LayoutBucket persists the layout of every model that was written to the
// database, so that a newer version of the code can be checked against it.
type LayoutBucket struct {
	b orm.ModelBucket
}

// NewLayoutBucket returns a bucket storing model layouts.
func NewLayoutBucket() *LayoutBucket {
	return &LayoutBucket{
		b: orm.NewModelBucket("layouts", &Layout{}),
	}
}

// Stored returns the last stored layout of the model.
func (b *LayoutBucket) Stored(db tokenvault.ReadOnlyKVStore, model interface{}) (*Layout, error) {
	name, err := modelName(model)
	if err != nil {
		return nil, err
	}
	var l Layout
	if err := b.b.One(db, []byte(name), &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// Upgrade verifies that the layout of each model at given version is a safe
// extension of the stored one and stores the new layouts. Models without a
// stored layout are introduced with this version. Nothing is written unless
// all models pass the check.
func (b *LayoutBucket) Upgrade(db tokenvault.KVStore, version uint32, models ...interface{}) error {
	next := make([]*Layout, 0, len(models))
	for _, m := range models {
		l, err := LayoutOf(m, version)
		if err != nil {
			return err
		}
		switch prev, err := b.Stored(db, m); {
		case err == nil:
			if err := CheckLayout(prev, l); err != nil {
				return errors.Wrapf(err, "layout of %s", l.Model)
			}
		case errors.ErrNotFound.Is(err):
			if err := l.Validate(); err != nil {
				return errors.Wrapf(err, "layout of %s", l.Model)
			}
		default:
			return errors.Wrap(err, "stored layout")
		}
		next = append(next, l)
	}
	for _, l := range next {
		if err := b.b.Put(db, []byte(l.Model), l); err != nil {
			return errors.Wrapf(err, "store layout of %s", l.Model)
		}
	}
	return nil
}

func modelName(model interface{}) (string, error) {
	tp := reflect.TypeOf(model)
	for tp.Kind() == reflect.Ptr {
		tp = tp.Elem()
	}
	if tp.Kind() != reflect.Struct {
		return "", errors.Wrapf(errors.ErrInput, "only struct has a layout, got %T", model)
	}
	return tp.String(), nil
}
