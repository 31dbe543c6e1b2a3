package redact

import (
	"strings"
	"testing"
)

func TestRedact_CPF(t *testing.T) {
	for _, input := range []string{"CPF 123.456.789-09 do paciente", "cpf 12345678909"} {
		out := Redact(input)
		if strings.Contains(out, "789") {
			t.Errorf("CPF not redacted: %q", out)
		}
		if !strings.Contains(out, "[REDACTED]") {
			t.Errorf("expected [REDACTED] in output: %q", out)
		}
	}
}

func TestRedact_Email(t *testing.T) {
	out := Redact("fale com maria.souza@example.com.br hoje")
	if strings.Contains(out, "maria.souza") {
		t.Errorf("email not redacted: %q", out)
	}
}

func TestRedact_Phone(t *testing.T) {
	for _, input := range []string{
		"WhatsApp (11) 98765-4321",
		"ligue +55 11 98765 4321",
		"tel 1133334444",
	} {
		out := Redact(input)
		if strings.Contains(out, "4321") || strings.Contains(out, "4444") {
			t.Errorf("phone not redacted: %q -> %q", input, out)
		}
	}
}

func TestRedact_CNS(t *testing.T) {
	out := Redact("CNS 898 0012 3456 7890")
	if strings.Contains(out, "3456") {
		t.Errorf("CNS not redacted: %q", out)
	}
}

func TestRedact_PatientLabel(t *testing.T) {
	out := Redact("Paciente: João da Silva, 45 anos")
	if strings.Contains(out, "João") {
		t.Errorf("patient name not redacted: %q", out)
	}
	if !strings.Contains(out, "45 anos") {
		t.Errorf("redaction ran past the field: %q", out)
	}
}

func TestRedact_LicenseNumberKept(t *testing.T) {
	input := "Dr. Ana Lima, CRM 123456, RQE 7890"
	if out := Redact(input); out != input {
		t.Errorf("license numbers are public and must stay: %q", out)
	}
}

func TestRedact_NonPersonalUnchanged(t *testing.T) {
	input := "Dica de saúde: beba água regularmente."
	if out := Redact(input); out != input {
		t.Errorf("non-personal text was modified: %q", out)
	}
}

func TestRedact_PreservesLineCount(t *testing.T) {
	input := "linha 1\nCPF 123.456.789-09\nlinha 3\nemail a@b.com\n"
	out := Redact(input)
	if strings.Count(out, "\n") != strings.Count(input, "\n") {
		t.Errorf("line count changed: in=%d out=%d", strings.Count(input, "\n"), strings.Count(out, "\n"))
	}
}

func TestPreview(t *testing.T) {
	out := Preview("linha um\n\nCPF 123.456.789-09   fim", 0)
	if out != "linha um CPF [REDACTED] fim" {
		t.Errorf("Preview = %q", out)
	}

	short := Preview("ação médica educativa", 4)
	if short != "ação…" {
		t.Errorf("Preview truncated = %q", short)
	}
}
