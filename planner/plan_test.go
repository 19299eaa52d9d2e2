package planner

import (
	"testing"

	"github.com/binarywire/bwcodec/schema"
)

func sensorSchema() *schema.Schema {
	s := schema.NewSchema(schema.BigEndian, schema.MSBFirst)
	s.Add(&schema.TypeDef{
		Name: "Reading",
		Composite: &schema.CompositeDef{
			Fields: []schema.Field{
				{Name: "deviceID", Element: schema.Element{Kind: schema.KindUint16}},
				{Name: "temperature", Element: schema.Element{Kind: schema.KindFloat32}},
				{Name: "humidity", Element: schema.Element{Kind: schema.KindUint8}},
				{Name: "timestamp", Element: schema.Element{Kind: schema.KindUint32}},
			},
		},
	})
	return s
}

func TestPlanClassifiesComposite(t *testing.T) {
	s := sensorSchema()
	plan, err := New(s).Plan()
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	tp := plan.Lookup("Reading")
	if tp == nil {
		t.Fatal("expected a plan for Reading")
	}
	if tp.Artifact != ArtifactComposite {
		t.Errorf("expected ArtifactComposite, got %v", tp.Artifact)
	}
	if tp.NeedsOutputShape {
		t.Error("Reading has no computed fields, must not need an output shape")
	}
	if tp.HasFieldBasedUnionInSequence() {
		t.Error("Reading has no unions")
	}
}

func TestPlanStandaloneCollectionAndAliases(t *testing.T) {
	s := schema.NewSchema(schema.LittleEndian, schema.LSBFirst)
	s.Add(&schema.TypeDef{
		Name: "Blob",
		Alias: &schema.Element{
			Kind: schema.KindArray,
			Array: &schema.ArraySpec{
				ArrayKind:  schema.ArrayLengthPrefixed,
				LengthType: schema.KindUint16,
				Items:      &schema.Element{Kind: schema.KindUint8},
			},
		},
	})
	s.Add(&schema.TypeDef{Name: "Footer", Alias: &schema.Element{Kind: schema.KindUint32}})
	s.Add(&schema.TypeDef{
		Name: "Ptr",
		Alias: &schema.Element{
			Kind: schema.KindBackReference,
			BackRef: &schema.BackRefSpec{
				StorageWidth: schema.KindUint16,
				OffsetBase:   schema.OffsetMessageStart,
				Target:       "Footer",
			},
		},
	})

	plan, err := New(s).Plan()
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	if got := plan.Lookup("Blob").Artifact; got != ArtifactStandaloneCollection {
		t.Errorf("Blob: expected ArtifactStandaloneCollection, got %v", got)
	}
	if got := plan.Lookup("Footer").Artifact; got != ArtifactSimpleAlias {
		t.Errorf("Footer: expected ArtifactSimpleAlias, got %v", got)
	}
	if got := plan.Lookup("Ptr").Artifact; got != ArtifactBackRefAlias {
		t.Errorf("Ptr: expected ArtifactBackRefAlias, got %v", got)
	}
}

func TestPlanRejectsDanglingBackRefTarget(t *testing.T) {
	s := schema.NewSchema(schema.BigEndian, schema.MSBFirst)
	s.Add(&schema.TypeDef{
		Name: "Ptr",
		Alias: &schema.Element{
			Kind: schema.KindBackReference,
			BackRef: &schema.BackRefSpec{
				StorageWidth: schema.KindUint16,
				OffsetBase:   schema.OffsetMessageStart,
				Target:       "Nonexistent",
			},
		},
	})

	if _, err := New(s).Plan(); err == nil {
		t.Error("expected an error for a back_reference target that is not declared")
	}
}

func TestPlanRejectsBadAlignment(t *testing.T) {
	s := schema.NewSchema(schema.BigEndian, schema.MSBFirst)
	s.Add(&schema.TypeDef{Name: "Footer", Alias: &schema.Element{Kind: schema.KindUint32}})
	s.Add(&schema.TypeDef{
		Name: "Container",
		Composite: &schema.CompositeDef{
			Instances: []schema.Instance{
				{Name: "footer", Target: "Footer", Alignment: 3, Position: schema.PositionExpr{Absolute: intPtr(0)}},
			},
		},
	})

	if _, err := New(s).Plan(); err == nil {
		t.Error("expected an error for a non-power-of-two alignment")
	}
}

func TestPlanFieldBasedUnionInSequence(t *testing.T) {
	s := schema.NewSchema(schema.BigEndian, schema.MSBFirst)
	s.Add(&schema.TypeDef{Name: "Ack", Composite: &schema.CompositeDef{}})
	s.Add(&schema.TypeDef{Name: "Nak", Composite: &schema.CompositeDef{}})
	s.Add(&schema.TypeDef{
		Name: "Message",
		Composite: &schema.CompositeDef{
			Fields: []schema.Field{
				{Name: "kind", Element: schema.Element{Kind: schema.KindUint8}},
				{Name: "body", Element: schema.Element{
					Kind: schema.KindDiscriminatedUnion,
					Union: &schema.UnionSpec{
						DiscriminatorField: "kind",
						Variants: []schema.Variant{
							{When: "kind == 0", Target: "Ack"},
							{When: "kind == 1", Target: "Nak"},
						},
					},
				}},
			},
		},
	})

	plan, err := New(s).Plan()
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	tp := plan.Lookup("Message")
	if !tp.HasFieldBasedUnionInSequence() {
		t.Error("expected field-based union detection for discriminator-field union")
	}
	if len(tp.FieldBasedUnionFields) != 1 || tp.FieldBasedUnionFields[0] != "body" {
		t.Errorf("expected FieldBasedUnionFields=[body], got %v", tp.FieldBasedUnionFields)
	}
	if !tp.NeedsEnumTags {
		t.Error("discriminated_union field must request enum tags")
	}
}

func TestPlanReservesPositionTableForSelector(t *testing.T) {
	s := schema.NewSchema(schema.BigEndian, schema.MSBFirst)
	s.Add(&schema.TypeDef{Name: "Item", Composite: &schema.CompositeDef{}})
	s.Add(&schema.TypeDef{
		Name: "Batch",
		Composite: &schema.CompositeDef{
			Fields: []schema.Field{
				{Name: "count", Element: schema.Element{Kind: schema.KindUint16}},
				{Name: "items", Element: schema.Element{
					Kind: schema.KindArray,
					Array: &schema.ArraySpec{
						ArrayKind:   schema.ArrayFieldReferenced,
						LengthField: "count",
						Items:       &schema.Element{Kind: schema.KindTypeRef, TypeRef: &schema.TypeRefSpec{Name: "Item"}},
					},
				}},
				{Name: "lastItemOffset", Element: schema.Element{Kind: schema.KindUint32}, Computed: &schema.ComputedSpec{
					Kind:   schema.ComputedPositionOf,
					Target: "items[last<Item>]",
				}},
			},
		},
	})

	plan, err := New(s).Plan()
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	tp := plan.Lookup("Batch")
	if len(tp.PositionTables) != 1 {
		t.Fatalf("expected 1 reserved position table, got %d", len(tp.PositionTables))
	}
	want := PositionTableKey{ArrayField: "items", TypeName: "Item"}
	if tp.PositionTables[0] != want {
		t.Errorf("expected %+v, got %+v", want, tp.PositionTables[0])
	}
}

func TestPlanRejectsTerminalVariantsOnNonUnionArray(t *testing.T) {
	s := schema.NewSchema(schema.BigEndian, schema.MSBFirst)
	s.Add(&schema.TypeDef{
		Name: "Stream",
		Composite: &schema.CompositeDef{
			Fields: []schema.Field{
				{Name: "items", Element: schema.Element{
					Kind: schema.KindArray,
					Array: &schema.ArraySpec{
						ArrayKind:        schema.ArrayNullTerminated,
						Items:            &schema.Element{Kind: schema.KindUint8},
						TerminalVariants: []string{"Ack"},
					},
				}},
			},
		},
	})

	if _, err := New(s).Plan(); err == nil {
		t.Error("expected an error for terminal_variants on a non-union item type")
	}
}

func intPtr(v int64) *int64 { return &v }
