package distribution

// Warning codes produced by Validate.
const (
	WarnEmpty     = "empty"
	WarnTooSmall  = "too-small"
	WarnTooLarge  = "too-large"
	WarnNoElder   = "no-elder"
	WarnNoPioneer = "no-pioneer"
)

// Default soft limits on group size.
const (
	DefaultMinSize = 5
	DefaultMaxSize = 20
)

// Bucket is a group together with the entities currently assigned to it.
type Bucket struct {
	ID      string
	Name    string
	Members []Entity
}

// Warning is one violated soft rule for one bucket.
type Warning struct {
	BucketID   string `json:"group_id"`
	BucketName string `json:"group_name"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

// Rules are the soft-validity limits applied by Validate.
type Rules struct {
	MinSize int
	MaxSize int
	// RequireRoles enables the no-elder and no-pioneer checks. It is set
	// for member groups only.
	RequireRoles bool
}

// DefaultRules returns the member-group rules with default limits.
func DefaultRules() Rules {
	return Rules{MinSize: DefaultMinSize, MaxSize: DefaultMaxSize, RequireRoles: true}
}

// Validate reports every soft-rule violation, one warning per rule per
// bucket, in bucket order. An empty bucket yields only the empty warning.
// It never fails.
func Validate(buckets []Bucket, rules Rules) []Warning {
	warnings := []Warning{}
	for _, b := range buckets {
		warn := func(code, msg string) {
			warnings = append(warnings, Warning{BucketID: b.ID, BucketName: b.Name, Code: code, Message: msg})
		}

		n := len(b.Members)
		if n == 0 {
			warn(WarnEmpty, "group has no members")
			continue
		}
		if n < rules.MinSize {
			warn(WarnTooSmall, "group has fewer members than recommended")
		}
		if rules.MaxSize > 0 && n > rules.MaxSize {
			warn(WarnTooLarge, "group has more members than recommended")
		}
		if !rules.RequireRoles {
			continue
		}

		var elder, pioneer bool
		for _, m := range b.Members {
			elder = elder || m.HasPrivilege(PrivilegeElder)
			pioneer = pioneer || m.Pioneer
		}
		if !elder {
			warn(WarnNoElder, "group has no elder")
		}
		if !pioneer {
			warn(WarnNoPioneer, "group has no pioneer")
		}
	}
	return warnings
}

// BucketRef identifies a group without its members.
type BucketRef struct {
	ID   string
	Name string
}

// Collect groups entities under the buckets they currently reference.
// Entities pointing at a bucket not in refs are ignored.
func Collect(refs []BucketRef, entities []Entity) []Bucket {
	out := make([]Bucket, len(refs))
	pos := make(map[string]int, len(refs))
	for i, r := range refs {
		out[i] = Bucket{ID: r.ID, Name: r.Name}
		pos[r.ID] = i
	}
	for _, e := range entities {
		if i, ok := pos[e.GroupID]; ok {
			out[i].Members = append(out[i].Members, e)
		}
	}
	return out
}
