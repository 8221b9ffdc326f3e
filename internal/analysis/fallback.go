package analysis

import "fmt"

// fallbackReport produces a degraded report for sites that could not be
// scraped, so SEO and audit requests still return something useful.
func fallbackReport(url, domain string) string {
	return fmt.Sprintf(`# Website Analysis for %s

## Status
**Limited Analysis Available**

The website %s could not be fully accessed due to access restrictions (likely bot protection or rate limiting).

## Basic Information
- **Domain**: %s
- **URL**: %s
- **Status**: Access restricted

## Recommendations

### For SEO Analysis:
1. **Accessibility**: Ensure your website is accessible to search engine crawlers
2. **Robots.txt**: Check if robots.txt is blocking legitimate crawlers
3. **Server Response**: Verify server responds correctly to requests
4. **CDN Settings**: If using a CDN, ensure it's configured properly

### For Content Strategy:
1. **Industry Research**: Research your industry's content trends
2. **Competitor Analysis**: Analyze accessible competitor websites
3. **Keyword Research**: Use tools like Google Keyword Planner
4. **Content Audit**: Manually review your website's content

### For Technical Improvements:
1. **Monitoring**: Set up website monitoring to detect access issues
2. **Performance**: Optimize page load speeds
3. **Mobile Optimization**: Ensure mobile-friendly design
4. **Security**: Review security settings that might block legitimate traffic

## Next Steps
1. Contact your web developer to review access restrictions
2. Check server logs for blocked requests
3. Consider adjusting security settings for better accessibility
4. Implement proper user-agent handling

*Note: This analysis is limited due to access restrictions. For a complete analysis, please ensure the website is accessible to automated tools.*
`, domain, url, domain, url)
}

const seoFallbackSuffix = `

## SEO Specific Recommendations:
- Ensure website is crawlable by search engines
- Check robots.txt file
- Verify server response codes
- Test website accessibility from different locations`

const auditFallbackSuffix = `

## Audit Specific Recommendations:
- Fix website accessibility issues
- Ensure proper server configuration
- Review security settings
- Test from multiple locations and devices`
