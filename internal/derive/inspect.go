package derive

import (
	"context"

	"bridgegen/internal/bridged"
	"bridgegen/internal/composite"
	"bridgegen/internal/decl"
	"bridgegen/internal/diagnostic"
	"bridgegen/internal/errors"
	"bridgegen/internal/layout"
	"bridgegen/internal/repr"
)

// Inspection describes how one type crosses the boundary in the context of a
// declaration file.
type Inspection struct {
	Type    string
	Shape   string
	Systems string
	Managed string
	Wire    repr.WireType
	Size    int
	Align   int
	// Strategy and Explanation are set for optionals and results.
	Strategy    string
	Explanation string
}

// Inspect classifies src against the declarations of file. Inspection is nil
// whenever the diagnostics hold an error.
func (f *Facade) Inspect(ctx context.Context, file *decl.File, src string) (*Inspection, diagnostic.Diagnostics, error) {
	s := newSession(f.cfg, file)

	for _, phase := range []func(){s.validate, s.register, s.classify} {
		if err := ctx.Err(); err != nil {
			return nil, s.diags, errors.Wrapf(err, "inspecting %s", src)
		}

		phase()
	}

	t, ok := s.resolve(src, "inspect "+src, "", false)
	if ok && !s.diags.HasErrors() {
		s.synthesize()
		s.synth.Wire(t)
	}

	s.diags.Sort()

	if !ok || s.diags.HasErrors() {
		return nil, s.diags, nil
	}

	info := layout.NewCalculator().Calculate(t)

	in := &Inspection{
		Type:    t.String(),
		Shape:   bridged.ShapeOf(t).String(),
		Systems: s.synth.NativeSystems(t),
		Managed: s.synth.NativeManaged(t, repr.PositionReturn),
		Wire:    s.synth.Wire(t),
		Size:    info.Size,
		Align:   info.Align,
	}

	switch v := t.(type) {
	case bridged.Optional:
		st, why := composite.SelectOptional(v.Inner)
		in.Strategy, in.Explanation = st.String(), why
	case bridged.Result:
		st, why := composite.SelectResult(v.Ok, v.Err)
		in.Strategy, in.Explanation = st.String(), why
	}

	s.log.Debugw("type inspected", "type", in.Type, "wire", in.Wire.C, "size", in.Size)

	return in, s.diags, nil
}
