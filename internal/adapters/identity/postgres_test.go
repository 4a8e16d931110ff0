package identity

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	model "github.com/okian/salesboard/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeRow struct {
	values []string
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		*(d.(*string)) = r.values[i]
	}
	return nil
}

// fakeDB answers by the table named in the query.
type fakeDB struct {
	rows    map[string]fakeRow
	queried []string
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	for table, row := range f.rows {
		if strings.Contains(sql, table) {
			f.queried = append(f.queried, table)
			return row
		}
	}
	return fakeRow{err: pgx.ErrNoRows}
}

func TestSlotStore_Lookup(t *testing.T) {
	Convey("Given the organisation tables", t, func() {
		db := &fakeDB{rows: map[string]fakeRow{
			"hr.employees":       {values: []string{"123", "Rina"}},
			"hr.assignments":     {values: []string{"SLOT-9"}},
			"master.sales_slots": {values: []string{"rbm", ScopeRegion, "R06"}},
			"master.ref_regions": {values: []string{"R06 JABODEBEK", "G-06"}},
		}}
		s := newSlotStore(db)

		Convey("A regional slot resolves the full region name and GRBM code", func() {
			sc, err := s.Lookup(context.Background(), "rina@example.com")
			So(err, ShouldBeNil)
			So(sc, ShouldResemble, SlotContext{
				NIK: "123", Name: "Rina", SlotCode: "SLOT-9", Role: "rbm",
				Scope: ScopeRegion, ScopeID: "R06", Region: "R06 JABODEBEK", GRBM: "G-06",
			})
		})

		Convey("A national slot maps to every region", func() {
			db.rows["master.sales_slots"] = fakeRow{values: []string{"head", ScopeNational, "NAT"}}
			sc, err := s.Lookup(context.Background(), "rina@example.com")
			So(err, ShouldBeNil)
			So(sc.Region, ShouldEqual, model.AllRegions)
			So(db.queried, ShouldNotContain, "master.ref_regions")
		})

		Convey("An empty scope id maps to every region", func() {
			db.rows["master.sales_slots"] = fakeRow{values: []string{"bm", "DEPO", ""}}
			sc, err := s.Lookup(context.Background(), "rina@example.com")
			So(err, ShouldBeNil)
			So(sc.Region, ShouldEqual, model.AllRegions)
		})

		Convey("No active assignment yields a partial context", func() {
			delete(db.rows, "hr.assignments")
			sc, err := s.Lookup(context.Background(), "rina@example.com")
			So(err, ShouldBeNil)
			So(sc, ShouldResemble, SlotContext{NIK: "123", Name: "Rina"})
		})

		Convey("An unknown email is not found", func() {
			delete(db.rows, "hr.employees")
			_, err := s.Lookup(context.Background(), "nobody@example.com")
			So(err, ShouldEqual, ErrNotFound)
		})

		Convey("Driver errors are returned with the step", func() {
			db.rows["master.sales_slots"] = fakeRow{err: errors.New("conn reset")}
			sc, err := s.Lookup(context.Background(), "rina@example.com")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "slot lookup")
			So(sc.SlotCode, ShouldEqual, "SLOT-9")
		})
	})
}
