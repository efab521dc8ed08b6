package permission

// ResourceAccess summarises CRUD rights on one resource.
type ResourceAccess struct {
	Resource  string
	CanCreate bool
	CanRead   bool
	CanUpdate bool
	CanDelete bool
	CanManage bool
}

// Access computes ResourceAccess for resource. Each right holds when either
// resource:action or resource:action:all is granted.
func (e *Evaluator) Access(resource string) ResourceAccess {
	can := func(action string) bool {
		return e.Any(resource+":"+action, Format(resource, action, ScopeAll))
	}
	return ResourceAccess{
		Resource:  resource,
		CanCreate: can("create"),
		CanRead:   can("read"),
		CanUpdate: can("update"),
		CanDelete: can("delete"),
		CanManage: can(ActionManage),
	}
}
