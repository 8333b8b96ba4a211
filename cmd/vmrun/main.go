// Command vmrun is a minimal host for the VM: point it at a jar or a
// directory of .class files, optionally name the entry-point class, and it
// runs main(String[])V to completion.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"classvm/archive"
	"classvm/classregistry"
	"classvm/interp"
	"classvm/vmconfig"
	"classvm/vmlog"
)

// props accumulates repeated -D flags into a key=value map, mirroring the
// teacher's Options-table handling of repeatable command-line switches.
type props map[string]string

func (p props) String() string {
	var b strings.Builder
	for k, v := range p {
		fmt.Fprintf(&b, "%s=%s ", k, v)
	}
	return b.String()
}

func (p props) Set(s string) error {
	k, v, ok := strings.Cut(s, "=")
	if !ok {
		return fmt.Errorf("-D flag must be key=value, got %q", s)
	}
	p[k] = v
	return nil
}

func main() {
	var (
		jarPath   = flag.String("jar", "", "path to a jar to run")
		dirPath   = flag.String("cp", "", "path to a directory of .class files")
		mainClass = flag.String("main", "", "entry-point class (slash-separated); defaults to the jar manifest's Main-Class")
		trace     = flag.Bool("trace", false, "enable per-opcode interpreter tracing")
	)
	sysProps := make(props)
	flag.Var(sysProps, "D", "system property binding key=value (repeatable)")
	flag.Parse()

	if *jarPath == "" && *dirPath == "" {
		fmt.Fprintln(os.Stderr, "vmrun: one of -jar or -cp is required")
		os.Exit(2)
	}

	cfg := vmconfig.InitGlobals("classvm")
	cfg.Args = flag.Args()
	cfg.Bootstrap(sysProps)
	cfg.SetTrace(*trace)

	reg := classregistry.New()
	if err := reg.Bootstrap(); err != nil {
		fatal("bootstrap", err)
	}

	if *jarPath != "" {
		jar, err := archive.Open(*jarPath)
		if err != nil {
			fatal("open jar", err)
		}
		defer jar.Close()
		reg.AddSource(jar)
	}
	if *dirPath != "" {
		dir, err := classregistry.LoadDir(*dirPath)
		if err != nil {
			fatal("load classpath directory", err)
		}
		reg.AddSource(dir)
	}

	entry := *mainClass
	if entry == "" {
		name, ok := reg.MainClass()
		if !ok {
			fmt.Fprintln(os.Stderr, "vmrun: no -main given and no Main-Class manifest entry found")
			os.Exit(2)
		}
		entry = name
	}

	vm := interp.NewVM(reg, cfg)
	vm.Boot()

	if err := vm.StartExec(entry, flag.Args()); err != nil {
		vmlog.Severe("%s: %v", entry, err)
		fmt.Fprintf(os.Stderr, "vmrun: %v\n", err)
		os.Exit(1)
	}
}

func fatal(step string, err error) {
	fmt.Fprintf(os.Stderr, "vmrun: %s: %v\n", step, err)
	os.Exit(1)
}
