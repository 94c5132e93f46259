package kvdoc

// FilterExisting splits keys into the items that exist and the keys that
// don't. Duplicate keys are collapsed, keeping the first occurrence; missing
// keys keep their input order.
func (c *Collection[T]) FilterExisting(tx ReadTransaction, keys []string) (existing []T, missing []string) {
	keys = dedupStrings(keys)
	existing = c.ReadByKeys(tx, keys)

	found := make(map[string]struct{}, len(existing))
	for _, item := range existing {
		found[item.Identifier()] = struct{}{}
	}
	for _, k := range keys {
		if _, ok := found[k]; !ok {
			missing = append(missing, k)
		}
	}
	return existing, missing
}
