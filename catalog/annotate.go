package catalog

import (
	"database/sql"
	"fmt"
	"time"
)

// Annotation mutators. These touch only the catalog-owned columns of
// the record row; no index table is ever involved, and a later
// re-digest of the same record leaves every annotation value intact.

// SetComment replaces the free-text comment on a record.
func (c *Catalog) SetComment(id, comment string) error {
	return c.mutateAnnotations(id, func(a *annotations) error {
		a.comment = comment
		return nil
	})
}

// SetRating sets the 0-5 rating on a record.
func (c *Catalog) SetRating(id string, rating int) error {
	if rating < 0 || rating > 5 {
		return fmt.Errorf("%w: rating %d out of range 0-5", ErrValidation, rating)
	}
	return c.mutateAnnotations(id, func(a *annotations) error {
		a.rating = rating
		return nil
	})
}

// SetCount sets the on-hand copy count.
func (c *Catalog) SetCount(id string, count int) error {
	if count < 0 {
		return fmt.Errorf("%w: count %d is negative", ErrValidation, count)
	}
	return c.mutateAnnotations(id, func(a *annotations) error {
		a.count = count
		return nil
	})
}

// AddPurchase appends a purchase event.
func (c *Catalog) AddPurchase(id string, date time.Time, price float64, vendor string) error {
	return c.mutateAnnotations(id, func(a *annotations) error {
		a.purchases = append(a.purchases, Purchase{Date: date, Price: price, Vendor: vendor})
		return nil
	})
}

// Lend records a check-out to someone. A record already out must come
// back before it goes out again.
func (c *Catalog) Lend(id, to string, date time.Time) error {
	return c.mutateAnnotations(id, func(a *annotations) error {
		if lentOut(a.lendEvents) {
			return fmt.Errorf("%w: record is already lent out", ErrValidation)
		}
		a.lendEvents = append(a.lendEvents, LendEvent{Kind: LendOut, Date: date, To: to})
		return nil
	})
}

// Return records a check-in.
func (c *Catalog) Return(id string, date time.Time) error {
	return c.mutateAnnotations(id, func(a *annotations) error {
		if !lentOut(a.lendEvents) {
			return fmt.Errorf("%w: record is not lent out", ErrValidation)
		}
		a.lendEvents = append(a.lendEvents, LendEvent{Kind: LendIn, Date: date})
		return nil
	})
}

func lentOut(events []LendEvent) bool {
	return len(events) > 0 && events[len(events)-1].Kind == LendOut
}

// AddListen appends a listen timestamp.
func (c *Catalog) AddListen(id string, date time.Time) error {
	return c.mutateAnnotations(id, func(a *annotations) error {
		a.listens = append(a.listens, date)
		return nil
	})
}

// AddDigitalPath attaches a local file path to the record. Duplicate
// paths are dropped.
func (c *Catalog) AddDigitalPath(id, path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty digital path", ErrValidation)
	}
	return c.mutateAnnotations(id, func(a *annotations) error {
		for _, existing := range a.digitalPaths {
			if existing == path {
				return nil
			}
		}
		a.digitalPaths = append(a.digitalPaths, path)
		return nil
	})
}

// SetDigitalPaths replaces the digital path list wholesale.
func (c *Catalog) SetDigitalPaths(id string, paths []string) error {
	return c.mutateAnnotations(id, func(a *annotations) error {
		a.digitalPaths = append([]string(nil), paths...)
		return nil
	})
}

func (c *Catalog) mutateAnnotations(id string, mutate func(*annotations) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inTx(func(tx *sql.Tx) error {
		a, err := getAnnotations(tx, id)
		if err != nil {
			return err
		}
		if err := mutate(a); err != nil {
			return err
		}
		return putAnnotations(tx, id, a)
	})
}
