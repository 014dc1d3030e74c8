package mongo

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// fakeCollection is an in-memory collection that evaluates the filters,
// updates and pipelines the repositories build. It understands the operators
// they use: equality (including array membership), $in, $ne, $lt, $set,
// $push, $pull and the $match/$sort/$skip/$limit/$project stages.
type fakeCollection struct {
	mu     sync.Mutex
	docs   []bson.M
	unique [][]string
	err    error
}

var _ collection = (*fakeCollection)(nil)

func newFakeCollection(unique ...[]string) *fakeCollection {
	return &fakeCollection{unique: append([][]string{{"_id"}}, unique...)}
}

func (f *fakeCollection) InsertOne(_ context.Context, doc any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	m, err := toM(doc)
	if err != nil {
		return err
	}
	if f.violatesUnique(m, -1) {
		return duplicateKeyError()
	}
	f.docs = append(f.docs, m)
	return nil
}

func (f *fakeCollection) FindOne(_ context.Context, filter any, q findQuery, out any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	q.Limit = 1
	found := f.query(filter.(bson.M), q)
	if len(found) == 0 {
		return mongo.ErrNoDocuments
	}
	return fromM(found[0], out)
}

func (f *fakeCollection) Find(_ context.Context, filter any, q findQuery, out any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	return fromMs(f.query(filter.(bson.M), q), out)
}

func (f *fakeCollection) CountDocuments(_ context.Context, filter any) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	return int64(len(f.query(filter.(bson.M), findQuery{}))), nil
}

func (f *fakeCollection) UpdateOne(_ context.Context, filter, update any) (int64, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, 0, f.err
	}
	for i, d := range f.docs {
		if !matches(d, filter.(bson.M)) {
			continue
		}
		modified, err := f.updateAt(i, update.(bson.M))
		if err != nil {
			return 0, 0, err
		}
		if modified {
			return 1, 1, nil
		}
		return 1, 0, nil
	}
	return 0, 0, nil
}

func (f *fakeCollection) UpdateMany(_ context.Context, filter, update any) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	var n int64
	for i, d := range f.docs {
		if !matches(d, filter.(bson.M)) {
			continue
		}
		modified, err := f.updateAt(i, update.(bson.M))
		if err != nil {
			return n, err
		}
		if modified {
			n++
		}
	}
	return n, nil
}

func (f *fakeCollection) DeleteOne(_ context.Context, filter any) (int64, error) {
	return f.deleteWhere(filter.(bson.M), 1)
}

func (f *fakeCollection) DeleteMany(_ context.Context, filter any) (int64, error) {
	return f.deleteWhere(filter.(bson.M), -1)
}

func (f *fakeCollection) Aggregate(_ context.Context, pipeline any, out any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	docs := slices.Clone(f.docs)
	for _, stage := range pipeline.([]bson.D) {
		for _, op := range stage {
			switch op.Key {
			case "$match":
				docs = slices.DeleteFunc(docs, func(d bson.M) bool { return !matches(d, op.Value.(bson.M)) })
			case "$sort":
				sortDocs(docs, op.Value.(bson.D))
			case "$skip":
				n := min(int(op.Value.(int64)), len(docs))
				docs = docs[n:]
			case "$limit":
				docs = docs[:min(int(op.Value.(int64)), len(docs))]
			case "$project":
				docs = project(docs, op.Value.(bson.M))
			default:
				return fmt.Errorf("fake: unsupported stage %s", op.Key)
			}
		}
	}
	return fromMs(docs, out)
}

// count reports the number of stored documents.
func (f *fakeCollection) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.docs)
}

func (f *fakeCollection) query(filter bson.M, q findQuery) []bson.M {
	var out []bson.M
	for _, d := range f.docs {
		if matches(d, filter) {
			out = append(out, d)
		}
	}
	if q.Sort != nil {
		sortDocs(out, q.Sort)
	}
	if q.Skip > 0 {
		out = out[min(int(q.Skip), len(out)):]
	}
	if q.Limit > 0 {
		out = out[:min(int(q.Limit), len(out))]
	}
	return out
}

func (f *fakeCollection) updateAt(i int, update bson.M) (bool, error) {
	before := f.docs[i]
	after := applyUpdate(before, update)
	if f.violatesUnique(after, i) {
		return false, duplicateKeyError()
	}
	f.docs[i] = after
	return !reflect.DeepEqual(before, after), nil
}

func (f *fakeCollection) deleteWhere(filter bson.M, limit int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	var n int64
	f.docs = slices.DeleteFunc(f.docs, func(d bson.M) bool {
		if limit >= 0 && n >= int64(limit) {
			return false
		}
		if matches(d, filter) {
			n++
			return true
		}
		return false
	})
	return n, nil
}

func (f *fakeCollection) violatesUnique(doc bson.M, skip int) bool {
	for _, fields := range f.unique {
		for i, other := range f.docs {
			if i == skip {
				continue
			}
			same := true
			for _, field := range fields {
				if compare(doc[field], other[field]) != 0 {
					same = false
					break
				}
			}
			if same {
				return true
			}
		}
	}
	return false
}

func duplicateKeyError() error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key error"}}}
}

// --- evaluation ---

func matches(doc, filter bson.M) bool {
	for field, cond := range filter {
		val := doc[field]
		ops, isOps := cond.(bson.M)
		if !isOps || !hasOperators(ops) {
			if !equalOrContains(val, norm(cond)) {
				return false
			}
			continue
		}
		for op, arg := range ops {
			switch op {
			case "$in":
				hit := false
				for _, want := range norm(arg).(bson.A) {
					if equalOrContains(val, want) {
						hit = true
						break
					}
				}
				if !hit {
					return false
				}
			case "$ne":
				if equalOrContains(val, norm(arg)) {
					return false
				}
			case "$lt":
				if val == nil || compare(val, norm(arg)) >= 0 {
					return false
				}
			default:
				panic("fake: unsupported operator " + op)
			}
		}
	}
	return true
}

func hasOperators(m bson.M) bool {
	for k := range m {
		if strings.HasPrefix(k, "$") {
			return true
		}
	}
	return false
}

func equalOrContains(val, want any) bool {
	if arr, ok := val.(bson.A); ok {
		for _, v := range arr {
			if compare(v, want) == 0 {
				return true
			}
		}
		return false
	}
	return compare(val, want) == 0
}

func applyUpdate(doc, update bson.M) bson.M {
	out := make(bson.M, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	for op, spec := range update {
		for field, v := range spec.(bson.M) {
			switch op {
			case "$set":
				out[field] = norm(v)
			case "$push":
				arr, _ := out[field].(bson.A)
				out[field] = append(slices.Clone(arr), norm(v))
			case "$pull":
				drop := norm(v.(bson.M)["$in"]).(bson.A)
				arr, _ := out[field].(bson.A)
				kept := bson.A{}
				for _, e := range arr {
					if !equalOrContains(drop, e) {
						kept = append(kept, e)
					}
				}
				out[field] = kept
			default:
				panic("fake: unsupported update " + op)
			}
		}
	}
	return out
}

func sortDocs(docs []bson.M, by bson.D) {
	sort.SliceStable(docs, func(i, j int) bool {
		for _, key := range by {
			c := compare(docs[i][key.Key], docs[j][key.Key])
			if c == 0 {
				continue
			}
			if key.Value.(int) < 0 {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func project(docs []bson.M, spec bson.M) []bson.M {
	out := make([]bson.M, len(docs))
	for i, d := range docs {
		p := bson.M{"_id": d["_id"]}
		for field, v := range spec {
			if n, ok := v.(int); ok && n == 1 {
				p[field] = d[field]
				continue
			}
			p[field] = eval(d, v)
		}
		out[i] = p
	}
	return out
}

// eval supports field paths, literals, $size and $ifNull.
func eval(doc bson.M, expr any) any {
	switch e := expr.(type) {
	case string:
		if strings.HasPrefix(e, "$") {
			return doc[strings.TrimPrefix(e, "$")]
		}
		return e
	case bson.M:
		if arg, ok := e["$size"]; ok {
			arr, _ := eval(doc, arg).(bson.A)
			return int64(len(arr))
		}
		if arg, ok := e["$ifNull"]; ok {
			args := arg.(bson.A)
			if v := eval(doc, args[0]); v != nil {
				return v
			}
			return eval(doc, args[1])
		}
	}
	return expr
}

// norm converts Go filter values to their stored BSON form.
func norm(v any) any {
	switch t := v.(type) {
	case time.Time:
		return bson.NewDateTimeFromTime(t)
	case []string:
		a := make(bson.A, len(t))
		for i, s := range t {
			a[i] = s
		}
		return a
	}
	return v
}

func compare(a, b any) int {
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	case bson.DateTime:
		if y, ok := b.(bson.DateTime); ok {
			return cmpInt(int64(x), int64(y))
		}
	case bool:
		if y, ok := b.(bool); ok {
			if x == y {
				return 0
			}
			if !x {
				return -1
			}
			return 1
		}
	case int32:
		return cmpInt(int64(x), toInt64(b))
	case int64:
		return cmpInt(x, toInt64(b))
	case nil:
		if b == nil {
			return 0
		}
		return -1
	}
	if b == nil {
		return 1
	}
	// Mismatched types never compare equal.
	return strings.Compare(fmt.Sprintf("%T", a), fmt.Sprintf("%T", b)) | 1
}

func cmpInt(x, y int64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	}
	return 0
}

// --- BSON round trips ---

func toM(v any) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func fromM(m bson.M, out any) error {
	raw, err := bson.Marshal(m)
	if err != nil {
		return err
	}
	return bson.Unmarshal(raw, out)
}

func fromMs(docs []bson.M, out any) error {
	slice := reflect.ValueOf(out).Elem()
	slice.Set(reflect.MakeSlice(slice.Type(), 0, len(docs)))
	for _, d := range docs {
		elem := reflect.New(slice.Type().Elem())
		if err := fromM(d, elem.Interface()); err != nil {
			return err
		}
		slice.Set(reflect.Append(slice, elem.Elem()))
	}
	return nil
}
