package ir

// Clone returns a deep copy of m. Reference nodes are copied as references; the walk
// never follows them, so cyclic graphs clone in linear time.
func (m *Model) Clone() *Model {
	if m == nil {
		return nil
	}
	c := *m
	c.Default = cloneValue(m.Default)
	if m.Properties != nil {
		c.Properties = make([]Property, len(m.Properties))
		for i, p := range m.Properties {
			p.Model = p.Model.Clone()
			c.Properties[i] = p
		}
	}
	if m.Enum != nil {
		c.Enum = make([]EnumValue, len(m.Enum))
		copy(c.Enum, m.Enum)
	}
	c.Items = m.Items.Clone()
	if m.Members != nil {
		c.Members = make([]*Model, len(m.Members))
		for i, mem := range m.Members {
			c.Members[i] = mem.Clone()
		}
	}
	if m.Imports != nil {
		c.Imports = append([]string(nil), m.Imports...)
	}
	return &c
}

// Clone returns a deep copy of the operation.
func (o Operation) Clone() Operation {
	c := o
	if o.Parameters != nil {
		c.Parameters = make([]Parameter, len(o.Parameters))
		for i, p := range o.Parameters {
			p.Model = p.Model.Clone()
			p.Default = cloneValue(p.Default)
			c.Parameters[i] = p
		}
	}
	if o.Results != nil {
		c.Results = make([]Result, len(o.Results))
		for i, r := range o.Results {
			r.Model = r.Model.Clone()
			c.Results[i] = r
		}
	}
	return c
}

// Clone returns a deep copy of the draft.
func (d *Draft) Clone() *Draft {
	if d == nil {
		return nil
	}
	c := &Draft{Version: d.Version, Server: d.Server}
	for _, m := range d.Models {
		c.Models = append(c.Models, m.Clone())
	}
	for _, s := range d.Services {
		sc := &Service{Name: s.Name, Alias: s.Alias, Imports: append([]string(nil), s.Imports...)}
		for _, op := range s.Operations {
			sc.Operations = append(sc.Operations, op.Clone())
		}
		c.Services = append(c.Services, sc)
	}
	for _, s := range d.Schemas {
		c.Schemas = append(c.Schemas, &Schema{Name: s.Name, Pointer: s.Pointer, Raw: cloneValue(s.Raw)})
	}
	return c
}

// Walk visits m and every nested node depth-first. It does not follow references.
func Walk(m *Model, fn func(*Model)) {
	if m == nil {
		return
	}
	fn(m)
	for i := range m.Properties {
		Walk(m.Properties[i].Model, fn)
	}
	Walk(m.Items, fn)
	for _, mem := range m.Members {
		Walk(mem, fn)
	}
}

// WalkOperation visits the model tree of every parameter and result of op.
func WalkOperation(op *Operation, fn func(*Model)) {
	for i := range op.Parameters {
		Walk(op.Parameters[i].Model, fn)
	}
	for i := range op.Results {
		Walk(op.Results[i].Model, fn)
	}
}

// WalkDraft visits every node reachable from the draft's models and operations.
func WalkDraft(d *Draft, fn func(*Model)) {
	for _, m := range d.Models {
		Walk(m, fn)
	}
	for _, s := range d.Services {
		for i := range s.Operations {
			WalkOperation(&s.Operations[i], fn)
		}
	}
}

// References returns the reference targets found under m, in walk order, without duplicates.
func References(m *Model) []string {
	var out []string
	seen := map[string]struct{}{}
	Walk(m, func(n *Model) {
		if n.Kind != KindReference {
			return
		}
		if _, ok := seen[n.Ref]; ok {
			return
		}
		seen[n.Ref] = struct{}{}
		out = append(out, n.Ref)
	})
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// CloneValue deep-copies a decoded JSON/YAML value (maps, slices and scalars).
func CloneValue(v any) any { return cloneValue(v) }
