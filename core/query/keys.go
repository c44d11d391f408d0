package query

// Root keys of the admin screens. Entity packages derive detail and nested keys from them.
var (
	Students    = NewKey("students")
	Parents     = NewKey("parents")
	Staff       = NewKey("staff")
	Roles       = NewKey("roles")
	Grades      = NewKey("grades")
	Classrooms  = NewKey("classrooms")
	Courses     = NewKey("courses")
	Assignments = NewKey("assignments")
	Pensions    = NewKey("pensions")
	Enrollments = NewKey("enrollments")
	Stats       = NewKey("stats")
)
