package generator

import (
	"strings"
	"testing"

	"github.com/binarywire/bwcodec/schema"
)

func sensorSchema() *schema.Schema {
	s := schema.NewSchema(schema.BigEndian, schema.MSBFirst)
	s.Add(&schema.TypeDef{
		Name: "Reading",
		Composite: &schema.CompositeDef{
			Fields: []schema.Field{
				{Name: "id", Element: schema.Element{Kind: schema.KindUint16}},
				{Name: "value", Element: schema.Element{Kind: schema.KindUint32}},
			},
		},
	})
	return s
}

func TestGenerateProducesPackageAndTypes(t *testing.T) {
	s := sensorSchema()
	out, err := Generate(s, Options{Package: "sensors"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if !strings.Contains(out, "package sensors") {
		t.Errorf("missing package clause:\n%s", out)
	}
	if !strings.Contains(out, "type Reading struct") {
		t.Errorf("missing Reading struct:\n%s", out)
	}
	if !strings.Contains(out, "func EncodeReading(") {
		t.Errorf("missing EncodeReading:\n%s", out)
	}
	if !strings.Contains(out, "func DecodeReading(") {
		t.Errorf("missing DecodeReading:\n%s", out)
	}
}

func TestGenerateDefaultsPackageName(t *testing.T) {
	s := sensorSchema()
	out, err := Generate(s, Options{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(out, "package generated") {
		t.Errorf("expected default package name, got:\n%s", out)
	}
}

func TestGenerateSurfacesPlannerErrors(t *testing.T) {
	s := schema.NewSchema(schema.BigEndian, schema.MSBFirst)
	s.Add(&schema.TypeDef{
		Name: "Broken",
		Composite: &schema.CompositeDef{
			Instances: []schema.Instance{
				{
					Name:     "tail",
					Target:   "Missing",
					Position: schema.PositionExpr{Absolute: int64Ptr(0)},
				},
			},
			Fields: []schema.Field{
				{Name: "id", Element: schema.Element{Kind: schema.KindUint8}},
			},
		},
	})

	if _, err := Generate(s, Options{Package: "broken"}); err == nil {
		t.Fatal("expected error for instance target referencing an undeclared type")
	}
}

func int64Ptr(v int64) *int64 { return &v }

func TestLazyWrapperEmittedOnceAcrossSharedTarget(t *testing.T) {
	s := schema.NewSchema(schema.BigEndian, schema.MSBFirst)
	s.Add(&schema.TypeDef{
		Name: "Payload",
		Composite: &schema.CompositeDef{
			Fields: []schema.Field{
				{Name: "tag", Element: schema.Element{Kind: schema.KindUint8}},
			},
		},
	})
	withInstance := func(name string) *schema.TypeDef {
		return &schema.TypeDef{
			Name: name,
			Composite: &schema.CompositeDef{
				Instances: []schema.Instance{
					{Name: "payload", Target: "Payload", Position: schema.PositionExpr{Absolute: int64Ptr(4)}},
				},
				Fields: []schema.Field{
					{Name: "offset", Element: schema.Element{Kind: schema.KindUint32}},
				},
			},
		}
	}
	s.Add(withInstance("Frame"))
	s.Add(withInstance("OtherFrame"))

	out, err := Generate(s, Options{Package: "shared"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if n := strings.Count(out, "type LazyPayload struct"); n != 1 {
		t.Errorf("expected exactly one LazyPayload wrapper declaration, got %d:\n%s", n, out)
	}
}
