package locale

// Source is how one locale's messages reach the consumer: *Inline or *Deferred.
type Source interface {
	Locale() string
	isSource()
}

// Inline messages ship with the entry module.
type Inline struct {
	Name     string
	Messages map[string]string
}

// LoaderFunc produces a deferred locale's messages on demand.
type LoaderFunc func() map[string]string

// Deferred messages are fetched only when the locale is first requested.
type Deferred struct {
	Name string
	Load LoaderFunc
}

func (i *Inline) Locale() string   { return i.Name }
func (d *Deferred) Locale() string { return d.Name }
func (*Inline) isSource()          {}
func (*Deferred) isSource()        {}

// Partitioned is a table split into eager and lazy locales, in column order.
type Partitioned struct {
	Default string
	Sources []Source
}

// Partition marks the default locale inline and every other locale deferred.
// With async false every locale is inline.
func Partition(t *Table, async bool) *Partitioned {
	p := &Partitioned{Default: t.Default}
	for _, locale := range t.Locales {
		msgs := t.Entries[locale]
		if locale == t.Default || !async {
			p.Sources = append(p.Sources, &Inline{Name: locale, Messages: msgs})
			continue
		}
		p.Sources = append(p.Sources, &Deferred{
			Name: locale,
			Load: func() map[string]string { return msgs },
		})
	}
	return p
}

// Source returns the source of a locale.
func (p *Partitioned) Source(locale string) (Source, bool) {
	for _, s := range p.Sources {
		if s.Locale() == locale {
			return s, true
		}
	}
	return nil, false
}

// Messages resolves a locale's messages, invoking the loader for deferred ones.
func (p *Partitioned) Messages(locale string) (map[string]string, bool) {
	s, ok := p.Source(locale)
	if !ok {
		return nil, false
	}
	switch s := s.(type) {
	case *Inline:
		return s.Messages, true
	case *Deferred:
		return s.Load(), true
	}
	return nil, false
}
