package jimple

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/kr/pretty"
)

// sampleOutput builds a function pointer interface and a class with a static
// field and a branching method.
func sampleOutput() *Output {
	out := NewOutput()

	iface := out.NewInterface("Test$FunPtr$I$I")
	apply := iface.NewMethod("apply", Int, false)
	apply.AddParameter(Int, "p0")

	cb := out.NewClass("Test")
	cb.AddField("counter", &ArrayType{Elem: Int}, true)

	mb := cb.NewMethod("clamp", Int, true)
	x := mb.AddParameter(Int, "x_1")
	mb.AddIf(&Cond{Op: CondLe, X: x, Y: IntLit(0)}, "BB3")
	mb.AddReturn(x)
	mb.AddLabel("BB3")
	mb.AddReturn(IntLit(0))

	return out
}

const wantInterface = `public interface Test$FunPtr$I$I extends java.lang.Object
{
    public abstract int apply(int);
}
`

const wantClass = `public class Test extends java.lang.Object
{
    public static int[] counter;

    public static int clamp(int)
    {
        int x_1;

        x_1 := @parameter0: int;
        if x_1 <= 0 goto BB3;
        return x_1;

     BB3:
        return 0;
    }
}
`

func TestClassRepr(t *testing.T) {
	out := sampleOutput()

	for _, test := range []struct {
		class string
		want  string
	}{
		{"Test$FunPtr$I$I", wantInterface},
		{"Test", wantClass},
	} {
		cb, ok := out.Class(test.class)
		if !ok {
			t.Fatalf("missing class %s", test.class)
		}

		if got := cb.Repr(); got != test.want {
			t.Errorf("%s: got\n%s\nwant\n%s", test.class, got, test.want)
		}
	}

	buf := &bytes.Buffer{}
	if _, err := out.WriteTo(buf); err != nil {
		t.Fatal(err)
	}

	if got := buf.String(); got != wantInterface+"\n"+wantClass {
		t.Errorf("WriteTo: got\n%s", got)
	}
}

func TestInstanceMethodRepr(t *testing.T) {
	out := NewOutput()
	cb := out.NewClass("Test$point")
	x := cb.AddField("x", Double, false)

	mb := cb.NewMethod("getX", Double, false)
	mb.AddReturn(&InstanceField{Base: mb.This(), Field: x})

	want := `public class Test$point extends java.lang.Object
{
    public double x;

    public double getX()
    {
        Test$point this;

        this := @this: Test$point;
        return this.<Test$point: double x>;
    }
}
`

	if got := cb.Repr(); got != want {
		t.Errorf("got\n%s\nwant\n%s", got, want)
	}
}

func TestWriteFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	paths, err := sampleOutput().WriteFiles(dir)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		filepath.Join(dir, "Test$FunPtr$I$I.jimple"),
		filepath.Join(dir, "Test.jimple"),
	}

	if diff := pretty.Diff(paths, want); len(diff) > 0 {
		t.Fatalf("paths differ: %v", diff)
	}

	text, err := os.ReadFile(want[1])
	if err != nil {
		t.Fatal(err)
	}

	if string(text) != wantClass {
		t.Errorf("file contents: got\n%s", text)
	}
}
