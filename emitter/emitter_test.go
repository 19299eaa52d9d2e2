package emitter

import (
	"strings"
	"testing"

	"github.com/binarywire/bwcodec/planner"
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
				{Name: "tagCount", Element: schema.Element{Kind: schema.KindUint8}, Computed: &schema.ComputedSpec{
					Kind:   schema.ComputedLengthOf,
					Target: "tags",
				}},
				{Name: "tags", Element: schema.Element{
					Kind: schema.KindArray,
					Array: &schema.ArraySpec{
						ArrayKind:   schema.ArrayFieldReferenced,
						LengthField: "tagCount",
						Items:       &schema.Element{Kind: schema.KindUint8},
					},
				}},
			},
		},
	})
	return s
}

func planAndEmit(t *testing.T, s *schema.Schema) string {
	t.Helper()
	plan, err := planner.New(s).Plan()
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	out, err := New(s, plan).Emit()
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	return out
}

func TestEmitCompositeHasEncodeAndDecode(t *testing.T) {
	out := planAndEmit(t, sensorSchema())
	for _, want := range []string{
		"type Reading struct {",
		"func EncodeReading(w *bitstream.Encoder, v ReadingInput) error {",
		"func DecodeReading(r *bitstream.Decoder) (Reading, error) {",
		"len(v.Tags)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected generated source to contain %q\n---\n%s", want, out)
		}
	}
	if !strings.Contains(out, "type ReadingInput struct {") {
		t.Error("Reading has a computed field and should emit a ReadingInput shape")
	}
}

func TestEmitStandaloneCollection(t *testing.T) {
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
	out := planAndEmit(t, s)
	if !strings.Contains(out, "type Blob []uint8") {
		t.Errorf("expected a named slice type, got:\n%s", out)
	}
	if !strings.Contains(out, "func EncodeBlob(w *bitstream.Encoder, v Blob) error {") {
		t.Errorf("expected EncodeBlob, got:\n%s", out)
	}
}

func TestEmitBackRefAliasChasesPointer(t *testing.T) {
	s := schema.NewSchema(schema.BigEndian, schema.MSBFirst)
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
	out := planAndEmit(t, s)
	for _, want := range []string{
		"type Ptr = Footer",
		"r.BeginBackRef(",
		"r.PushPosition()",
		"r.PopPosition()",
		"DecodeFooter(r)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in back_reference alias output, got:\n%s", want, out)
		}
	}
}

func TestEmitFieldBasedUnionDispatch(t *testing.T) {
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
	out := planAndEmit(t, s)
	for _, want := range []string{
		"func DecodeMessage(r *bitstream.Decoder) (Message, error) {",
		"DecodeAck(r)",
		"DecodeNak(r)",
		unionGoType + "{Tag: \"Ack\"",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in field-based union output, got:\n%s", want, out)
		}
	}
}

func TestEmitInstanceWrapperIsLazy(t *testing.T) {
	s := schema.NewSchema(schema.BigEndian, schema.MSBFirst)
	s.Add(&schema.TypeDef{Name: "Footer", Composite: &schema.CompositeDef{
		Fields: []schema.Field{{Name: "crc", Element: schema.Element{Kind: schema.KindUint32}}},
	}})
	off := int64(0)
	s.Add(&schema.TypeDef{
		Name: "Container",
		Composite: &schema.CompositeDef{
			Instances: []schema.Instance{
				{Name: "footer", Target: "Footer", Position: schema.PositionExpr{Absolute: &off}},
			},
		},
	})
	out := planAndEmit(t, s)
	for _, want := range []string{
		"type LazyFooter struct {",
		"func (l *LazyFooter) Get() (Footer, error) {",
		"out.Footer = LazyFooter{",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in instance-wrapper output, got:\n%s", want, out)
		}
	}
}

func TestEmitChoiceIsFlatNotExternallyTagged(t *testing.T) {
	s := schema.NewSchema(schema.BigEndian, schema.MSBFirst)
	s.Add(&schema.TypeDef{Name: "Ping", Composite: &schema.CompositeDef{
		Fields: []schema.Field{{Name: "kind", Element: schema.Element{Kind: schema.KindUint8}}},
	}})
	s.Add(&schema.TypeDef{Name: "Pong", Composite: &schema.CompositeDef{
		Fields: []schema.Field{{Name: "kind", Element: schema.Element{Kind: schema.KindUint8}}},
	}})
	s.Add(&schema.TypeDef{
		Name: "Event",
		Composite: &schema.CompositeDef{
			Fields: []schema.Field{
				{Name: "body", Element: schema.Element{
					Kind: schema.KindChoice,
					Choice: &schema.ChoiceSpec{
						Variants: []schema.Variant{
							{Target: "Ping"},
							{Target: "Pong"},
						},
					},
				}},
			},
		},
	})
	out := planAndEmit(t, s)
	for _, want := range []string{
		"Body " + choiceGoType,
		"func EncodeEvent(w *bitstream.Encoder, v Event) error {",
		"switch v.Body.Type {",
		"case \"Ping\":",
		"if err := EncodePing(w, v.Body.Value.(Ping)); err != nil {",
		"r.PeekUint8()",
		"case 1:",
		"DecodePing(r)",
		"case 2:",
		"DecodePong(r)",
		choiceGoType + "{Type: \"Ping\"",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in choice output, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "w.WriteUint8(1)") {
		t.Errorf("choice encode must not write a separate external tag byte, got:\n%s", out)
	}
}
