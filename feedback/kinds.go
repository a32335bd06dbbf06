package feedback

import (
	"quill/database"
	"quill/types"
)

func (reporter *Reporter) TupleConversionNotExpressible(on database.Node, from types.Type, to types.Type) {
	reporter.report(Item{
		Id:   "tuple-conversion-not-expressible",
		Rank: RankErrors,
		On:   on,
		String: func() string {
			render := NewRender(reporter.db)
			render.WriteString("cannot express the conversion from ")
			render.WriteType(from)
			render.WriteString(" to ")
			render.WriteType(to)
			render.WriteString("; it mixes variadic collection with defaulted fields")
			return render.Finish()
		},
	})
}

func (reporter *Reporter) BrokenProtocol(on database.Node, protocol string, requirement string) {
	reporter.report(Item{
		Id:   "broken-protocol",
		Rank: RankErrors,
		On:   on,
		String: func() string {
			render := NewRender(reporter.db)
			render.WriteString("protocol ")
			render.WriteCode(protocol)
			render.WriteString(" is broken; it has no usable requirement named ")
			render.WriteCode(requirement)
			return render.Finish()
		},
	})
}

func (reporter *Reporter) PartialApplication(on database.Node, what string) {
	reporter.report(Item{
		Id:   "partial-application",
		Rank: RankErrors,
		On:   on,
		String: func() string {
			render := NewRender(reporter.db)
			render.WriteString("partial application of ")
			render.WriteString(what)
			render.WriteString(" is not allowed; call it with its remaining arguments")
			return render.Finish()
		},
	})
}

func (reporter *Reporter) DiscardOutsideAssignment(on database.Node) {
	reporter.report(Item{
		Id:   "discard-outside-assignment",
		Rank: RankErrors,
		On:   on,
		String: func() string {
			render := NewRender(reporter.db)
			render.WriteCode("_")
			render.WriteString(" can only appear on the left side of an assignment")
			return render.Finish()
		},
	})
}

func (reporter *Reporter) CannotConvert(on database.Node, from types.Type, to types.Type) {
	reporter.report(Item{
		Id:   "cannot-convert",
		Rank: RankErrors,
		On:   on,
		String: func() string {
			render := NewRender(reporter.db)
			render.WriteString("cannot convert ")
			render.WriteType(from)
			render.WriteString(" to ")
			render.WriteType(to)
			return render.Finish()
		},
	})
}

func (reporter *Reporter) BindingInjectedOptional(on database.Node, value types.Type) {
	reporter.report(Item{
		Id:   "binding-injected-optional",
		Rank: RankAlwaysSucceeds,
		On:   on,
		String: func() string {
			render := NewRender(reporter.db)
			render.WriteCode("?")
			render.WriteString(" is applied to a value of the non-optional type ")
			render.WriteType(value)
			render.WriteString(" and always succeeds")
			return render.Finish()
		},
	})
}

func (reporter *Reporter) ForcingInjectedOptional(on database.Node, value types.Type) {
	reporter.report(Item{
		Id:   "forcing-injected-optional",
		Rank: RankAlwaysSucceeds,
		On:   on,
		String: func() string {
			render := NewRender(reporter.db)
			render.WriteCode("!")
			render.WriteString(" is applied to a value of the non-optional type ")
			render.WriteType(value)
			render.WriteString(" and has no effect")
			return render.Finish()
		},
	})
}

func (reporter *Reporter) DowncastToSupertype(on database.Node, from types.Type, to types.Type) {
	reporter.report(Item{
		Id:   "downcast-to-supertype",
		Rank: RankAlwaysSucceeds,
		On:   on,
		String: func() string {
			render := NewRender(reporter.db)
			render.WriteString("checked cast from ")
			render.WriteType(from)
			render.WriteString(" to its supertype ")
			render.WriteType(to)
			render.WriteString(" always succeeds")
			return render.Finish()
		},
	})
}

func (reporter *Reporter) AlwaysTrueCheck(on database.Node, from types.Type, to types.Type) {
	reporter.report(Item{
		Id:   "always-true-check",
		Rank: RankAlwaysSucceeds,
		On:   on,
		String: func() string {
			render := NewRender(reporter.db)
			render.WriteCode("is")
			render.WriteString(" check from ")
			render.WriteType(from)
			render.WriteString(" to ")
			render.WriteType(to)
			render.WriteString(" is always true")
			return render.Finish()
		},
	})
}
