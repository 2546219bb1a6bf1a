package parties

import "testing"

func TestValidCPF(t *testing.T) {
	valid := []string{"52998224725", "11144477735"}
	for _, doc := range valid {
		if !validCPF(doc) {
			t.Errorf("expected %s to be a valid CPF", doc)
		}
	}

	invalid := []string{"52998224724", "11111111111", "123", ""}
	for _, doc := range invalid {
		if validCPF(doc) {
			t.Errorf("expected %s to be an invalid CPF", doc)
		}
	}
}

func TestValidCNPJ(t *testing.T) {
	valid := []string{"11222333000181", "11444777000161"}
	for _, doc := range valid {
		if !validCNPJ(doc) {
			t.Errorf("expected %s to be a valid CNPJ", doc)
		}
	}

	invalid := []string{"11222333000180", "00000000000000", "1122233300018"}
	for _, doc := range invalid {
		if validCNPJ(doc) {
			t.Errorf("expected %s to be an invalid CNPJ", doc)
		}
	}
}

func TestValidateCreateChecksDocument(t *testing.T) {
	req := CreatePartyRequest{
		Kind:     KindClient,
		Name:     "Comercial Aurora",
		Document: "529.982.247-25",
	}
	if err := validateCreate(req); err != nil {
		t.Fatalf("expected formatted CPF to pass, got %v", err)
	}

	req.Document = "529.982.247-00"
	if err := validateCreate(req); err == nil {
		t.Fatal("expected invalid document to fail")
	}

	req.Document = "52998224725"
	req.Kind = "PARTNER"
	if err := validateCreate(req); err == nil {
		t.Fatal("expected unknown kind to fail")
	}
}
