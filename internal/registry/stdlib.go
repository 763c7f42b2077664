package registry

import (
	"github.com/you-not-fish/jack/internal/syntax"
	"github.com/you-not-fish/jack/internal/types"
)

// LoadStandardLibrary registers the signatures of the Jack OS classes
// so programs can be compiled without the OS sources on the command
// line. The signatures follow the nand2tetris API.
func (r *Registry) LoadStandardLibrary(it *types.Interner) {
	intT := it.Int
	charT := it.Char
	boolT := it.Boolean
	voidT := it.Void
	stringT := it.Intern("String", nil)
	arrayT := it.Intern("Array", nil)

	fn := func(ret *types.Type, params ...*types.Type) MethodSignature {
		return MethodSignature{ReturnType: ret, Params: params, Kind: syntax.Function}
	}
	method := func(ret *types.Type, params ...*types.Type) MethodSignature {
		return MethodSignature{ReturnType: ret, Params: params, Kind: syntax.Method}
	}
	ctor := func(ret *types.Type, params ...*types.Type) MethodSignature {
		return MethodSignature{ReturnType: ret, Params: params, Kind: syntax.Constructor}
	}

	r.RegisterClass("Math")
	r.RegisterMethod("Math", "init", fn(voidT))
	r.RegisterMethod("Math", "abs", fn(intT, intT))
	r.RegisterMethod("Math", "multiply", fn(intT, intT, intT))
	r.RegisterMethod("Math", "divide", fn(intT, intT, intT))
	r.RegisterMethod("Math", "min", fn(intT, intT, intT))
	r.RegisterMethod("Math", "max", fn(intT, intT, intT))
	r.RegisterMethod("Math", "sqrt", fn(intT, intT))
	r.RegisterMethod("Math", "bit", fn(boolT, intT, intT))

	r.RegisterClass("String")
	r.RegisterMethod("String", "new", ctor(stringT, intT))
	r.RegisterMethod("String", "dispose", method(voidT))
	r.RegisterMethod("String", "length", method(intT))
	r.RegisterMethod("String", "charAt", method(charT, intT))
	r.RegisterMethod("String", "setCharAt", method(voidT, intT, charT))
	r.RegisterMethod("String", "appendChar", method(stringT, charT))
	r.RegisterMethod("String", "eraseLastChar", method(voidT))
	r.RegisterMethod("String", "intValue", method(intT))
	r.RegisterMethod("String", "setInt", method(voidT, intT))
	r.RegisterMethod("String", "backSpace", fn(charT))
	r.RegisterMethod("String", "doubleQuote", fn(charT))
	r.RegisterMethod("String", "newLine", fn(charT))

	r.RegisterClass("Array")
	r.RegisterMethod("Array", "new", ctor(arrayT, intT))
	r.RegisterMethod("Array", "dispose", method(voidT))

	r.RegisterClass("Output")
	r.RegisterMethod("Output", "init", fn(voidT))
	r.RegisterMethod("Output", "moveCursor", fn(voidT, intT, intT))
	r.RegisterMethod("Output", "printChar", fn(voidT, charT))
	r.RegisterMethod("Output", "printString", fn(voidT, stringT))
	r.RegisterMethod("Output", "printInt", fn(voidT, intT))
	r.RegisterMethod("Output", "println", fn(voidT))
	r.RegisterMethod("Output", "backSpace", fn(voidT))

	r.RegisterClass("Screen")
	r.RegisterMethod("Screen", "init", fn(voidT))
	r.RegisterMethod("Screen", "clearScreen", fn(voidT))
	r.RegisterMethod("Screen", "setColor", fn(voidT, boolT))
	r.RegisterMethod("Screen", "drawPixel", fn(voidT, intT, intT))
	r.RegisterMethod("Screen", "drawLine", fn(voidT, intT, intT, intT, intT))
	r.RegisterMethod("Screen", "drawRectangle", fn(voidT, intT, intT, intT, intT))
	r.RegisterMethod("Screen", "drawCircle", fn(voidT, intT, intT, intT))

	r.RegisterClass("Keyboard")
	r.RegisterMethod("Keyboard", "init", fn(voidT))
	r.RegisterMethod("Keyboard", "keyPressed", fn(charT))
	r.RegisterMethod("Keyboard", "readChar", fn(charT))
	r.RegisterMethod("Keyboard", "readLine", fn(stringT, stringT))
	r.RegisterMethod("Keyboard", "readInt", fn(intT, stringT))

	r.RegisterClass("Memory")
	r.RegisterMethod("Memory", "init", fn(voidT))
	r.RegisterMethod("Memory", "peek", fn(intT, intT))
	r.RegisterMethod("Memory", "poke", fn(voidT, intT, intT))
	r.RegisterMethod("Memory", "alloc", fn(intT, intT))
	r.RegisterMethod("Memory", "deAlloc", fn(voidT, arrayT))

	r.RegisterClass("Sys")
	r.RegisterMethod("Sys", "init", fn(voidT))
	r.RegisterMethod("Sys", "halt", fn(voidT))
	r.RegisterMethod("Sys", "error", fn(voidT, intT))
	r.RegisterMethod("Sys", "wait", fn(voidT, intT))
}
