package model_test

import (
	"math"
	"testing"

	"github.com/okian/scout/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestValue(t *testing.T) {
	Convey("Given percentile values", t, func() {
		Convey("The zero value is missing", func() {
			var v model.Value
			So(v.IsMissing(), ShouldBeTrue)
			So(v.Ptr(), ShouldBeNil)
		})

		Convey("NaN is normalized to missing", func() {
			So(model.Present(math.NaN()).IsMissing(), ShouldBeTrue)
		})

		Convey("Infinities are normalized to missing and still encode", func() {
			for _, f := range []float64{math.Inf(1), math.Inf(-1)} {
				v := model.Present(f)
				So(v.IsMissing(), ShouldBeTrue)
				b, err := v.MarshalJSON()
				So(err, ShouldBeNil)
				So(string(b), ShouldEqual, "null")
			}
		})

		Convey("Zero is present and distinct from missing", func() {
			v := model.Present(0)
			got, ok := v.Get()
			So(ok, ShouldBeTrue)
			So(got, ShouldEqual, 0)
			So(v, ShouldNotResemble, model.Missing())
		})

		Convey("Or substitutes only for missing values", func() {
			So(model.Missing().Or(0), ShouldEqual, 0)
			So(model.Present(42).Or(0), ShouldEqual, 42)
		})

		Convey("FromPtr maps nil to missing", func() {
			x := 12.5
			So(model.FromPtr(nil).IsMissing(), ShouldBeTrue)
			So(model.FromPtr(&x).Or(-1), ShouldEqual, 12.5)
		})
	})
}

func TestValueJSON(t *testing.T) {
	Convey("Given JSON encoding of values", t, func() {
		Convey("Missing encodes as null", func() {
			b, err := model.Missing().MarshalJSON()
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, "null")
		})

		Convey("Present encodes as a number", func() {
			b, err := model.Present(80.5).MarshalJSON()
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, "80.5")
		})

		Convey("null decodes as missing", func() {
			v := model.Present(3)
			So(v.UnmarshalJSON([]byte("null")), ShouldBeNil)
			So(v.IsMissing(), ShouldBeTrue)
		})

		Convey("garbage fails to decode", func() {
			var v model.Value
			So(v.UnmarshalJSON([]byte(`"abc"`)), ShouldNotBeNil)
		})
	})
}

func TestParseValue(t *testing.T) {
	Convey("Given textual cells", t, func() {
		for _, s := range []string{"", "nan", "NaN", "null", "NA", "None", "inf", "-Inf", "+infinity"} {
			v, err := model.ParseValue(s)
			So(err, ShouldBeNil)
			So(v.IsMissing(), ShouldBeTrue)
		}

		v, err := model.ParseValue("77.25")
		So(err, ShouldBeNil)
		So(v.Or(0), ShouldEqual, 77.25)

		_, err = model.ParseValue("seventy")
		So(err, ShouldNotBeNil)
	})
}

func TestMean(t *testing.T) {
	Convey("Given a mix of present and missing values", t, func() {
		Convey("Missing values are excluded from numerator and denominator", func() {
			m := model.Mean(model.Present(80), model.Missing(), model.Present(40))
			So(m.Or(-1), ShouldEqual, 60)
		})

		Convey("All missing yields missing", func() {
			So(model.Mean(model.Missing(), model.Missing()).IsMissing(), ShouldBeTrue)
			So(model.Mean().IsMissing(), ShouldBeTrue)
		})
	})
}
