package interp

import (
	"strings"

	"classvm/vmvalue"
)

// paramDescriptors splits a method descriptor's parameter section into one
// string per parameter (e.g. "(ILjava/lang/String;[I)V" -> ["I",
// "Ljava/lang/String;", "[I"]), used to size an invoked method's argument
// list and new frame's local slots.
func paramDescriptors(methodDesc string) []string {
	if len(methodDesc) == 0 || methodDesc[0] != '(' {
		return nil
	}
	var params []string
	i := 1
	for i < len(methodDesc) && methodDesc[i] != ')' {
		start := i
		for methodDesc[i] == '[' {
			i++
		}
		if methodDesc[i] == 'L' {
			for methodDesc[i] != ';' {
				i++
			}
			i++
		} else {
			i++
		}
		params = append(params, methodDesc[start:i])
	}
	return params
}

// returnDescriptor returns the part of a method descriptor after the closing
// paren, e.g. "(I)Ljava/lang/String;" -> "Ljava/lang/String;".
func returnDescriptor(methodDesc string) string {
	idx := strings.IndexByte(methodDesc, ')')
	if idx < 0 || idx+1 >= len(methodDesc) {
		return "V"
	}
	return methodDesc[idx+1:]
}

// placeLocals copies a receiver (if any) and a parameter-indexed args slice
// — one value per parameter, matching how the operand stack held them —
// into a callee's Locals array, widening each long/double parameter to the
// two consecutive local-variable slots the JVM's layout reserves for it.
// The second slot of such a pair is left at its zero value and never read,
// matching how javac-compiled bytecode only ever addresses the first.
func placeLocals(locals []vmvalue.Value, receiver vmvalue.Value, hasReceiver bool, params []string, args []vmvalue.Value) {
	i := 0
	if hasReceiver {
		locals[i] = receiver
		i++
	}
	for pi, p := range params {
		locals[i] = args[pi]
		i++
		if p == "J" || p == "D" {
			i++
		}
	}
}
