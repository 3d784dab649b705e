package pantry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" {
		t.Fatalf("scheme = %q, want http", u.Scheme)
	}
	if u.Host != defaultAPIBind {
		t.Fatalf("host = %q, want %q", u.Host, defaultAPIBind)
	}

	u, err = parseBaseURL("http://example.com:1234/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}
}

func TestClient_FetchProductAndTaxonomy(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/product/5901234123457":
			fmt.Fprint(w, `{"status":1,"code":"5901234123457","product":{
				"product_name":"Oat Bar",
				"brands":"Granary",
				"nutrition_data_per":"100g",
				"nutriments":{"energy-kcal_100g":250.0,"energy-kcal_unit":"kcal","fat_100g":"9.5"},
				"image_front_url":"http://img.test/front.jpg"}}`)
		case "/api/v1/product/0000000000000":
			fmt.Fprint(w, `{"status":0,"code":"0000000000000"}`)
		case "/api/v1/nutrients":
			fmt.Fprint(w, `{"nutrients":[
				{"id":"energy-kcal","name":"Energy","kind":"energy","unit":"kcal"},
				{"id":"fat","name":"Fat","kind":"weight","unit":"g"}]}`)
		case "/api/v1/nutrients/levels":
			fmt.Fprint(w, `{"levels":{"fat":{"name":"Fat","important":true}}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	rec, err := c.FetchProduct(ctx, "5901234123457")
	if err != nil {
		t.Fatalf("FetchProduct returned error: %v", err)
	}
	if rec == nil || rec.ProductName != "Oat Bar" {
		t.Fatalf("FetchProduct = %#v, want Oat Bar", rec)
	}
	if v, ok := rec.NutrimentNumber("energy-kcal_100g"); !ok || v != 250 {
		t.Fatalf("NutrimentNumber(energy-kcal_100g) = %v, %v, want 250", v, ok)
	}
	if v, ok := rec.NutrimentNumber("fat_100g"); !ok || v != 9.5 {
		t.Fatalf("NutrimentNumber(fat_100g) = %v, %v, want 9.5 (string payload)", v, ok)
	}
	if s, ok := rec.NutrimentString("energy-kcal_unit"); !ok || s != "kcal" {
		t.Fatalf("NutrimentString(energy-kcal_unit) = %q, %v, want kcal", s, ok)
	}
	if urls := rec.ImageURLs(); len(urls) != 1 || urls[ImageFront] == "" {
		t.Fatalf("ImageURLs = %#v, want front only", urls)
	}

	absent, err := c.FetchProduct(ctx, "0000000000000")
	if err != nil {
		t.Fatalf("FetchProduct(absent) returned error: %v", err)
	}
	if absent != nil {
		t.Fatalf("FetchProduct(absent) = %#v, want nil record", absent)
	}

	defs, err := c.FetchNutrientCatalog(ctx)
	if err != nil {
		t.Fatalf("FetchNutrientCatalog returned error: %v", err)
	}
	if len(defs) != 2 || defs[0].ID != "energy-kcal" || defs[1].ID != "fat" {
		t.Fatalf("catalog order = %#v, want energy-kcal then fat", defs)
	}
	if defs[0].DefaultUnit.Code != "kcal" {
		t.Fatalf("energy default unit = %q, want kcal", defs[0].DefaultUnit.Code)
	}

	meta, err := c.FetchNutrientMetadata(ctx)
	if err != nil {
		t.Fatalf("FetchNutrientMetadata returned error: %v", err)
	}
	if lvl, ok := meta["fat"]; !ok || !lvl.Important {
		t.Fatalf("metadata = %#v, want important fat level", meta)
	}
}

func TestClient_FetchImagesToleratesPartialFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/front.jpg":
			_, _ = w.Write([]byte("front-bytes"))
		case "/nutrition.jpg":
			http.Error(w, "gone", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	images, err := c.FetchImages(context.Background(), map[ImageField]string{
		ImageFront:     server.URL + "/front.jpg",
		ImageNutrition: server.URL + "/nutrition.jpg",
	})
	if err == nil {
		t.Fatal("FetchImages error = nil, want aggregated failure")
	}
	if string(images[ImageFront]) != "front-bytes" {
		t.Fatalf("front image = %q, want front-bytes", images[ImageFront])
	}
	if _, ok := images[ImageNutrition]; ok {
		t.Fatal("nutrition image present despite server failure")
	}
}

func TestClient_SubmitProductAndImage(t *testing.T) {
	t.Parallel()

	var gotForm map[string]string
	var gotImageField, gotCode string
	var gotImage []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/product":
			if err := r.ParseForm(); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			gotForm = map[string]string{}
			for k := range r.PostForm {
				gotForm[k] = r.PostForm.Get(k)
			}
			_ = json.NewEncoder(w).Encode(map[string]int{"status": 1})
		case "/api/v1/product/555/images":
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			gotCode = r.FormValue("code")
			gotImageField = r.FormValue("imagefield")
			file, _, err := r.FormFile("imgupload_front")
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			defer func() { _ = file.Close() }()
			buf := make([]byte, 16)
			n, _ := file.Read(buf)
			gotImage = buf[:n]
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	err = c.SubmitProduct(context.Background(), map[string]string{
		"code":                  "555",
		"product_name":          "Oat Bar",
		"nutriment_energy-kcal": "250",
	})
	if err != nil {
		t.Fatalf("SubmitProduct returned error: %v", err)
	}
	if gotForm["code"] != "555" || gotForm["nutriment_energy-kcal"] != "250" {
		t.Fatalf("submitted form = %#v", gotForm)
	}

	err = c.SubmitImage(context.Background(), ImageUpload{Barcode: "555", Field: ImageFront, Data: []byte("jpegdata")})
	if err != nil {
		t.Fatalf("SubmitImage returned error: %v", err)
	}
	if gotCode != "555" || gotImageField != "front" || string(gotImage) != "jpegdata" {
		t.Fatalf("image upload = code %q field %q data %q", gotCode, gotImageField, gotImage)
	}

	if err := c.SubmitImage(context.Background(), ImageUpload{Barcode: "555", Field: ImageFront}); err == nil {
		t.Fatal("SubmitImage with no data should fail")
	}
}
