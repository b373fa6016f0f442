package errors

// Resolution codes (100-199)
const (
	// ErrUnresolvedType indicates a value type could not be resolved; string is used
	ErrUnresolvedType ErrorCode = 101
	// WarnUnmappedGeometry indicates a geometry type without map entry; a generic geometry is used
	WarnUnmappedGeometry ErrorCode = 102
	// ErrBasicTypeNotEligible indicates a subtype of a scalar-mapped type that cannot be a basic type
	ErrBasicTypeNotEligible ErrorCode = 103
	// ErrBasicTypeNonScalarAncestor indicates a basic type whose ancestor maps to a non-scalar kind
	ErrBasicTypeNonScalarAncestor ErrorCode = 104
	// ErrMalformedFacet indicates a basic-type facet value that cannot be parsed
	ErrMalformedFacet ErrorCode = 105
	// WarnFacetNotApplicable indicates a facet that does not apply to the scalar kind
	WarnFacetNotApplicable ErrorCode = 106
	// WarnLiteralEncodingType indicates a literal encoding type that is not a scalar
	WarnLiteralEncodingType ErrorCode = 107
)

// Encoding info codes (200-299)
const (
	// ErrInconsistentEntityType indicates two sources disagree on the entity type member
	ErrInconsistentEntityType ErrorCode = 201
	// ErrInconsistentIdentifier indicates two sources disagree on the identifier member
	ErrInconsistentIdentifier ErrorCode = 202
	// WarnMultipleIdentifiers indicates several identifier properties in one class
	WarnMultipleIdentifiers ErrorCode = 203
)

// Annotation codes (300-399)
const (
	// WarnAnnotationValue indicates an annotation value that cannot be coerced
	WarnAnnotationValue ErrorCode = 301
	// WarnUnknownDescriptor indicates an unknown descriptor in a template
	WarnUnknownDescriptor ErrorCode = 302
)

// Assembly codes (400-499)
const (
	// WarnEnumValue indicates an enumeration literal that cannot be coerced
	WarnEnumValue ErrorCode = 401
	// WarnMultiplicityIgnored indicates a multiplicity > 1 where only one value makes sense
	WarnMultiplicityIgnored ErrorCode = 402
	// ErrDataTypeCycle indicates a cycle while inlining data types
	ErrDataTypeCycle ErrorCode = 403
	// WarnMultiplePrimary indicates several properties tagged as the same primary member
	WarnMultiplePrimary ErrorCode = 404
	// WarnValueTypeOption indicates a value type option that cannot be applied
	WarnValueTypeOption ErrorCode = 405
	// WarnUnknownEncodingRule indicates a reference to an undefined encoding rule
	WarnUnknownEncodingRule ErrorCode = 406
)

// Collection codes (500-599)
const (
	// ErrCollectionMemberNoEntityType indicates a member without known entity type member
	ErrCollectionMemberNoEntityType ErrorCode = 501
	// WarnCollectionEmpty indicates a collection without usable members
	WarnCollectionEmpty ErrorCode = 502
	// ErrCollectionMemberUnknown indicates a member name that is not a compiled class
	ErrCollectionMemberUnknown ErrorCode = 503
)

// Output codes (900-999)
const (
	// FatalOutputDirectory indicates the output directory is missing or not writable
	FatalOutputDirectory ErrorCode = 901
	// FatalWriteFailed indicates a document could not be written
	FatalWriteFailed ErrorCode = 902
)

type definition struct {
	typ      string
	category ErrorCategory
	severity ErrorSeverity
	format   string
}

var definitions = map[ErrorCode]definition{
	ErrUnresolvedType: {"unresolved_type", CategoryResolution, SeverityError,
		"Value type '%s' could not be resolved; 'string' is used instead"},
	WarnUnmappedGeometry: {"unmapped_geometry", CategoryResolution, SeverityWarning,
		"Geometry type '%s' has no map entry; generic geometry '%s' is used"},
	ErrBasicTypeNotEligible: {"basic_type_not_eligible", CategoryResolution, SeverityError,
		"Class '%s' is a subtype of scalar-mapped type '%s' but cannot be encoded as basic type"},
	ErrBasicTypeNonScalarAncestor: {"basic_type_non_scalar", CategoryResolution, SeverityError,
		"Basic type '%s' derives from '%s' which maps to non-scalar '%s'"},
	ErrMalformedFacet: {"malformed_facet", CategoryResolution, SeverityError,
		"Facet '%s' with value '%s' cannot be parsed; the facet is ignored"},
	WarnFacetNotApplicable: {"facet_not_applicable", CategoryResolution, SeverityWarning,
		"Facet '%s' does not apply to JSON type '%s'; the facet is ignored"},
	WarnLiteralEncodingType: {"literal_encoding_type", CategoryResolution, SeverityWarning,
		"Literal encoding type '%s' does not map to a scalar JSON type; 'string' is used"},

	ErrInconsistentEntityType: {"inconsistent_entity_type", CategoryEncoding, SeverityError,
		"Entity type member from '%s' conflicts with entity type member from '%s'; the latter is ignored"},
	ErrInconsistentIdentifier: {"inconsistent_identifier", CategoryEncoding, SeverityError,
		"Identifier member from '%s' conflicts with identifier member from '%s'; the latter is ignored"},
	WarnMultipleIdentifiers: {"multiple_identifiers", CategoryEncoding, SeverityWarning,
		"Class has several identifier properties; '%s' is used"},

	WarnAnnotationValue: {"annotation_value", CategoryAnnotation, SeverityWarning,
		"Value '%s' of annotation '%s' is not a valid %s; the value is skipped"},
	WarnUnknownDescriptor: {"unknown_descriptor", CategoryAnnotation, SeverityWarning,
		"Unknown descriptor '%s' in template of annotation '%s'"},

	WarnEnumValue: {"enum_value", CategoryAssembly, SeverityWarning,
		"Enumeration value '%s' is not a valid %s; the value is omitted"},
	WarnMultiplicityIgnored: {"multiplicity_ignored", CategoryAssembly, SeverityWarning,
		"Multiplicity of '%s' is ignored; member '%s' holds a single value"},
	ErrDataTypeCycle: {"data_type_cycle", CategoryAssembly, SeverityError,
		"Inlining data type '%s' would create a cycle (%s); a reference is used"},
	WarnMultiplePrimary: {"multiple_primary", CategoryAssembly, SeverityWarning,
		"Several properties are tagged as primary %s; '%s' is used"},
	WarnValueTypeOption: {"value_type_option", CategoryAssembly, SeverityWarning,
		"Value type option '%s' cannot be applied: %s"},
	WarnUnknownEncodingRule: {"unknown_encoding_rule", CategoryAssembly, SeverityWarning,
		"Encoding rule '%s' is not defined; '%s' is used"},

	ErrCollectionMemberNoEntityType: {"collection_member_no_entity_type", CategoryCollection, SeverityError,
		"Member '%s' of collection '%s' has no entity type member and is excluded"},
	WarnCollectionEmpty: {"collection_empty", CategoryCollection, SeverityWarning,
		"Collection '%s' has no members and is skipped"},
	ErrCollectionMemberUnknown: {"collection_member_unknown", CategoryCollection, SeverityError,
		"Member '%s' of collection '%s' is not a compiled class"},

	FatalOutputDirectory: {"output_directory", CategoryOutput, SeverityFatal,
		"Output directory '%s' cannot be used: %v"},
	FatalWriteFailed: {"write_failed", CategoryOutput, SeverityFatal,
		"Writing '%s' failed: %v"},
}

// Codes returns all defined diagnostic codes
func Codes() []ErrorCode {
	codes := make([]ErrorCode, 0, len(definitions))
	for code := range definitions {
		codes = append(codes, code)
	}
	return codes
}
