package interp

import (
	"container/list"
	"fmt"

	"classvm/classregistry"
	"classvm/frame"
	"classvm/native"
	"classvm/vmclass"
	"classvm/vmconfig"
	"classvm/vmthread"
	"classvm/vmvalue"
)

// VM bundles the collaborators the interpreter loop needs on every
// dispatch: the class registry (for resolution), and the process-wide
// configuration. One VM serves every thread the host starts.
type VM struct {
	Registry *classregistry.Registry
	Config   *vmconfig.Globals
}

// NewVM builds a VM over an already-bootstrapped registry.
func NewVM(reg *classregistry.Registry, cfg *vmconfig.Globals) *VM {
	return &VM{Registry: reg, Config: cfg}
}

// Boot wires the native registry into this VM: the managed String class
// type, every bundled native implementation, and the callback natives use
// to run a method to completion without importing this package directly
// (avoiding a native<->interp import cycle).
func (vm *VM) Boot() {
	native.SetStringClassType(vm.Registry.StringClass)
	native.LoadAll()
	native.RunMethod = vm.runMethodForNative
}

// StartExec is where execution begins (C12's external "run" operation): it
// resolves the entry-point class, locates its main(String[])V, builds the
// argument array, and drives the main thread to completion.
func (vm *VM) StartExec(mainClassName string, args []string) error {
	ct, err := vm.Registry.Resolve(mainClassName)
	if err != nil {
		return fmt.Errorf("class not found: %s: %w", mainClassName, err)
	}
	if err := ct.EnsureLinked(vm.Registry); err != nil {
		return err
	}

	owner, mi, ok := ct.FindMethod("main", "([Ljava/lang/String;)V")
	if !ok || mi.Code == nil {
		return fmt.Errorf("class %s has no main([Ljava/lang/String;)V", mainClassName)
	}

	acc := vmthread.NewAccessor(nil)
	vmthread.Register(acc)
	defer vmthread.Unregister(acc)

	if err := owner.EnsureStaticInit(func(c *vmclass.ClassType) error {
		return vm.runClinit(acc, c)
	}); err != nil {
		return err
	}

	argsArray := vmclass.Make1Dim("Ljava/lang/String;", len(args))
	for i, a := range args {
		argsArray.Store(i, vmvalue.Ref{Obj: vmclass.NewJavaString(vm.Registry.StringClass, a)})
	}

	f := frame.New(owner, owner.CF.CP, owner.Name, "main", "([Ljava/lang/String;)V", mi.Code)
	f.Locals[0] = vmvalue.Ref{Obj: argsArray}

	fs := frame.CreateStack()
	frame.Push(fs, f)
	acc.PushCall(vmthread.CallInfo{ClassName: owner.Name, MethodName: "main", MethodDesc: "([Ljava/lang/String;)V"})

	return vm.runThread(acc, fs)
}

// runMethodForNative implements native.RunMethod: it drives a single method
// call to completion on a fresh thread accessor and frame stack, used by
// Thread.start0 to run a managed Runnable's run()V on its own goroutine.
func (vm *VM) runMethodForNative(inst *vmclass.Instance, methodName, desc string, args []vmvalue.Value) (vmvalue.Value, error) {
	owner, mi, ok := inst.Klass.FindMethod(methodName, desc)
	if !ok {
		return nil, fmt.Errorf("method not found: %s.%s%s", inst.ClassName(), methodName, desc)
	}

	acc := vmthread.NewAccessor(inst)
	vmthread.Register(acc)
	defer vmthread.Unregister(acc)

	if err := owner.EnsureStaticInit(func(c *vmclass.ClassType) error {
		return vm.runClinit(acc, c)
	}); err != nil {
		return nil, err
	}

	if mi == nil || mi.IsNative() || owner.CF == nil {
		g, ok := native.Lookup(owner.Name, methodName, desc)
		if !ok {
			return nil, fmt.Errorf("native method not found: %s.%s%s", owner.Name, methodName, desc)
		}
		fullArgs := append([]vmvalue.Value{vmvalue.Ref{Obj: inst}}, args...)
		ret := g.GFunction(fullArgs, acc)
		if errBlk, ok := ret.(*native.GErrBlk); ok {
			return nil, fmt.Errorf("%s: %s", errBlk.ExceptionClass, errBlk.ErrMsg)
		}
		if v, ok := ret.(vmvalue.Value); ok {
			return v, nil
		}
		return nil, nil
	}

	if mi.Code == nil {
		return nil, fmt.Errorf("abstract method invoked directly: %s.%s%s", owner.Name, methodName, desc)
	}

	f := frame.New(owner, owner.CF.CP, owner.Name, methodName, desc, mi.Code)
	f.Locals[0] = vmvalue.Ref{Obj: inst}
	copy(f.Locals[1:], args)
	var result vmvalue.Value
	f.Sink = &result

	fs := list.New()
	frame.Push(fs, f)
	if err := vm.runThread(acc, fs); err != nil {
		return nil, err
	}
	return result, nil
}
