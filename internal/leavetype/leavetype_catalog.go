package leavetype

// Catalog is a read-only snapshot of the allowed leave types.
type Catalog struct {
	byCode map[string]LeaveType
	items  []LeaveType
}

func NewCatalog(types []LeaveType) Catalog {
	c := Catalog{
		byCode: make(map[string]LeaveType, len(types)),
		items:  make([]LeaveType, 0, len(types)),
	}
	for _, t := range types {
		if _, dup := c.byCode[t.Code]; dup {
			continue
		}
		c.byCode[t.Code] = t
		c.items = append(c.items, t)
	}
	return c
}

func (c Catalog) Lookup(code string) (LeaveType, bool) {
	t, ok := c.byCode[code]
	return t, ok
}

func (c Catalog) Contains(code string) bool {
	_, ok := c.byCode[code]
	return ok
}

// All returns the types in catalog order. The slice is a copy.
func (c Catalog) All() []LeaveType {
	out := make([]LeaveType, len(c.items))
	copy(out, c.items)
	return out
}

func (c Catalog) Len() int { return len(c.items) }
