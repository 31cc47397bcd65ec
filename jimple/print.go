package jimple

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Repr returns the Jimple source text of the class.
func (cb *ClassBuilder) Repr() string {
	sb := &strings.Builder{}

	if cb.IsInterface {
		fmt.Fprintf(sb, "public interface %s extends %s", cb.Name, cb.Super)
	} else {
		fmt.Fprintf(sb, "public class %s extends %s", cb.Name, cb.Super)
	}

	if len(cb.Interfaces) > 0 {
		fmt.Fprintf(sb, " implements %s", strings.Join(cb.Interfaces, ", "))
	}

	sb.WriteString("\n{\n")

	for _, f := range cb.Fields {
		if f.Static {
			fmt.Fprintf(sb, "    public static %s %s;\n", f.T.Repr(), f.Name)
		} else {
			fmt.Fprintf(sb, "    public %s %s;\n", f.T.Repr(), f.Name)
		}
	}

	for i, mb := range cb.Methods {
		if i > 0 || len(cb.Fields) > 0 {
			sb.WriteRune('\n')
		}

		mb.writeTo(sb)
	}

	sb.WriteString("}\n")
	return sb.String()
}

func (mb *MethodBuilder) writeTo(sb *strings.Builder) {
	modifiers := "public "
	if mb.Static {
		modifiers += "static "
	}
	if mb.Abstract {
		modifiers += "abstract "
	}

	params := make([]string, len(mb.Params))
	for i, p := range mb.Params {
		params[i] = p.T.Repr()
	}

	fmt.Fprintf(sb, "    %s%s %s(%s)", modifiers, mb.ReturnType.Repr(), mb.Name, strings.Join(params, ", "))
	if mb.Abstract {
		sb.WriteString(";\n")
		return
	}

	sb.WriteString("\n    {\n")

	if !mb.Static {
		fmt.Fprintf(sb, "        %s this;\n", mb.Class.Name)
	}

	for _, p := range mb.Params {
		fmt.Fprintf(sb, "        %s %s;\n", p.T.Repr(), p.Name)
	}

	for _, l := range mb.Locals {
		fmt.Fprintf(sb, "        %s %s;\n", l.T.Repr(), l.Name)
	}

	if !mb.Static || len(mb.Params)+len(mb.Locals) > 0 {
		sb.WriteRune('\n')
	}

	if !mb.Static {
		fmt.Fprintf(sb, "        this := @this: %s;\n", mb.Class.Name)
	}

	for i, p := range mb.Params {
		fmt.Fprintf(sb, "        %s := @parameter%d: %s;\n", p.Name, i, p.T.Repr())
	}

	for _, stmt := range mb.Body {
		if _, isLabel := stmt.(*LabelStmt); isLabel {
			fmt.Fprintf(sb, "\n     %s\n", stmt.Repr())
		} else {
			fmt.Fprintf(sb, "        %s;\n", stmt.Repr())
		}
	}

	sb.WriteString("    }\n")
}

// -----------------------------------------------------------------------------

// WriteTo writes every class of the output to w, separated by blank lines.
func (o *Output) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for i, cb := range o.classes {
		text := cb.Repr()
		if i > 0 {
			text = "\n" + text
		}

		n, err := io.WriteString(w, text)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}

	return total, nil
}

// WriteFiles writes each class of the output to `<dir>/<fqcn>.jimple` and
// returns the paths of the written files.
func (o *Output) WriteFiles(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, err
	}

	var paths []string
	for _, cb := range o.classes {
		path := filepath.Join(dir, cb.Name+".jimple")
		if err := os.WriteFile(path, []byte(cb.Repr()), 0644); err != nil {
			return paths, err
		}

		paths = append(paths, path)
	}

	return paths, nil
}
