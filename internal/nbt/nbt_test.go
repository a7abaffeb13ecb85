package nbt

import (
	"bytes"
	"testing"
)

func TestScalarRoundTrip(t *testing.T) {
	root := Compound{
		"aByte":   &Byte{-12},
		"aShort":  &Short{1234},
		"anInt":   &Int{-100000},
		"aLong":   &Long{9000000000},
		"aFloat":  &Float{1.5},
		"aDouble": &Double{3.14159},
		"aString": &String{"hello, nbt"},
	}

	var buf bytes.Buffer
	if err := Write(&buf, root); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}

	if v := got["aByte"].(*Byte).Value; v != -12 {
		t.Errorf("aByte = %d, want -12", v)
	}
	if v := got["aShort"].(*Short).Value; v != 1234 {
		t.Errorf("aShort = %d, want 1234", v)
	}
	if v := got["anInt"].(*Int).Value; v != -100000 {
		t.Errorf("anInt = %d, want -100000", v)
	}
	if v := got["aLong"].(*Long).Value; v != 9000000000 {
		t.Errorf("aLong = %d, want 9000000000", v)
	}
	if v := got["aFloat"].(*Float).Value; v != 1.5 {
		t.Errorf("aFloat = %v, want 1.5", v)
	}
	if v := got["aDouble"].(*Double).Value; v != 3.14159 {
		t.Errorf("aDouble = %v, want 3.14159", v)
	}
	if v := got["aString"].(*String).Value; v != "hello, nbt" {
		t.Errorf("aString = %q, want %q", v, "hello, nbt")
	}
}

func TestByteArrayAndIntArrayRoundTrip(t *testing.T) {
	root := Compound{
		"bytes": &ByteArray{Value: []byte{0, 1, 2, 255, 128}},
		"ints":  &IntArray{Value: []int32{0, -1, 2147483647, -2147483648}},
	}
	var buf bytes.Buffer
	if err := Write(&buf, root); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if !bytes.Equal(got["bytes"].(*ByteArray).Value, root["bytes"].(*ByteArray).Value) {
		t.Errorf("bytes = %v, want %v", got["bytes"].(*ByteArray).Value, root["bytes"].(*ByteArray).Value)
	}
	gotInts := got["ints"].(*IntArray).Value
	wantInts := root["ints"].(*IntArray).Value
	if len(gotInts) != len(wantInts) {
		t.Fatalf("ints length = %d, want %d", len(gotInts), len(wantInts))
	}
	for i := range wantInts {
		if gotInts[i] != wantInts[i] {
			t.Errorf("ints[%d] = %d, want %d", i, gotInts[i], wantInts[i])
		}
	}
}

func TestNestedCompoundAndList(t *testing.T) {
	root := Compound{
		"Level": Compound{
			"xPos": &Int{4},
			"zPos": &Int{-4},
			"Sections": &List{
				ElemType: TagCompound,
				Value: []Tag{
					Compound{"Y": &Byte{0}},
					Compound{"Y": &Byte{1}},
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := Write(&buf, root); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}

	level, ok := got["Level"].(Compound)
	if !ok {
		t.Fatalf("Level is %T, want Compound", got["Level"])
	}
	if level["xPos"].(*Int).Value != 4 || level["zPos"].(*Int).Value != -4 {
		t.Errorf("xPos/zPos = %+v", level)
	}
	sections, ok := level["Sections"].(*List)
	if !ok {
		t.Fatalf("Sections is %T, want *List", level["Sections"])
	}
	if len(sections.Value) != 2 {
		t.Fatalf("len(Sections) = %d, want 2", len(sections.Value))
	}
	if sections.Value[1].(Compound)["Y"].(*Byte).Value != 1 {
		t.Errorf("Sections[1].Y = %+v", sections.Value[1])
	}
}

func TestLookup(t *testing.T) {
	root := Compound{
		"Level": Compound{
			"Data": Compound{
				"Seed": &Long{42},
			},
		},
	}
	tag := root.Lookup("Level/Data/Seed")
	seed, ok := tag.(*Long)
	if !ok {
		t.Fatalf("Lookup returned %T, want *Long", tag)
	}
	if seed.Value != 42 {
		t.Errorf("Seed = %d, want 42", seed.Value)
	}

	if root.Lookup("Level/Missing") != nil {
		t.Error("Lookup of a missing path should return nil")
	}
}

func TestReadRejectsNonCompoundRoot(t *testing.T) {
	var buf bytes.Buffer
	// A top-level Int tag, not a Compound.
	TagInt.write(&buf)
	(&String{""}).write(&buf)
	(&Int{1}).write(&buf)

	if _, err := Read(&buf); err == nil {
		t.Error("Read should reject a non-Compound top-level tag")
	}
}
