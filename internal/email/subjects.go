package email

const (
	subjectImportSucceededFmt = "Adresseimport fullført: %d adresser oppdatert"
	subjectImportFailed       = "Adresseimport feilet"

	titleImportSucceeded = "Adresseimport fullført"
	titleImportFailed    = "Adresseimport feilet"
)
